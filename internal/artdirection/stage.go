package artdirection

import (
	"github.com/roboco-io/picturize/internal/ir"
)

// Work is a pending crop: read SourcePath, crop per Descriptor, publish as URI.
// The bytes are staged at Source.Path.
type Work struct {
	SourcePath string        `json:"source_path"`
	Source     *ir.Source    `json:"-"`
	Descriptor ir.Descriptor `json:"descriptor"`
	URI        string        `json:"uri"`
}

// Apply adds one source per descriptor to img and returns the crops to perform.
// Each source starts with a single breakpoint standing for the crop itself.
func Apply(img *ir.ResponsiveImage, descriptors []ir.Descriptor, outputDir, tempDir string) []Work {
	work := make([]Work, 0, len(descriptors))

	for _, d := range descriptors {
		uri := ir.TransformationURI(outputDir, img.OriginalPath, d)
		staged := ir.StagingPath(tempDir, uri)

		src := &ir.Source{
			Path:        staged,
			MaxViewport: d.MaxViewport,
			Size:        d.Size,
			Ratio:       d.Ratio,
			CustomPath:  d.CustomPath,
			Breakpoints: []ir.Breakpoint{{
				Path:  staged,
				URI:   uri,
				Width: d.Width(),
			}},
		}
		img.Sources = append(img.Sources, src)

		effective := img.OriginalPath
		if d.IsCustom() {
			effective = d.CustomPath
		}
		work = append(work, Work{
			SourcePath: effective,
			Source:     src,
			Descriptor: d,
			URI:        uri,
		})
	}

	return work
}
