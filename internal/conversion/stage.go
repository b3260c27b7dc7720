// Package conversion re-encodes every breakpoint into the enabled output formats.
package conversion

import (
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
)

// Work is a pending re-encoding of SourcePath to Format, published as URI.
type Work struct {
	SourcePath string        `json:"source_path"`
	Format     format.Format `json:"format"`
	URI        string        `json:"uri"`
}

// Options configures the conversion stage.
type Options struct {
	// Convert is false when no converter is configured. Sources are then only
	// tagged with the format of the original image.
	Convert   bool
	Formats   []format.Format
	OutputDir string
}

// Apply replaces img.Sources with one copy per enabled format plus a
// whole-image fallback per format, and returns the conversions to perform.
func Apply(img *ir.ResponsiveImage, opts Options, inspector format.Inspector) ([]Work, error) {
	if !opts.Convert && !img.HasSources() {
		return nil, nil
	}

	original, err := detect(img.OriginalPath, inspector, opts.Convert)
	if err != nil {
		return nil, err
	}

	if !opts.Convert {
		for _, src := range img.Sources {
			src.Format = original
		}
		return nil, nil
	}

	width, _, err := inspector.Dimensions(img.OriginalPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnsupportedSource, "conversion.Apply", "failed to read image dimensions", err)
	}

	var work []Work
	converted := make([]*ir.Source, 0, (len(img.Sources)+1)*len(opts.Formats))

	for _, f := range opts.Formats {
		for _, src := range img.Sources {
			clone := src.Clone()
			clone.Format = f
			for i, bp := range clone.Breakpoints {
				uri := ir.ConversionURI(opts.OutputDir, bp.URI, f)
				clone.Breakpoints[i].URI = uri
				work = append(work, Work{SourcePath: bp.Path, Format: f, URI: uri})
			}
			converted = append(converted, clone)
		}

		uri := ir.ConversionFallbackURI(opts.OutputDir, img.OriginalPath, f)
		converted = append(converted, &ir.Source{
			Path:   img.OriginalPath,
			Size:   img.Sizes.Default(),
			Ratio:  ir.RatioOriginal,
			Format: f,
			Breakpoints: []ir.Breakpoint{{
				Path:  img.OriginalPath,
				URI:   uri,
				Width: width,
			}},
		})
		work = append(work, Work{SourcePath: img.OriginalPath, Format: f, URI: uri})
	}

	img.Sources = converted
	return work, nil
}

// detect reads the format of path from its byte signature.
func detect(path string, inspector format.Inspector, decode bool) (format.Format, error) {
	f, err := inspector.Format(path)
	if err != nil {
		return format.FormatUnknown, apperrors.Wrap(apperrors.KindUnsupportedSource, "conversion.detect",
			"type of "+path+" could not be detected", err)
	}
	if f == format.FormatUnknown {
		return f, apperrors.Newf(apperrors.KindUnsupportedSource, "conversion.detect",
			"type of %s could not be detected", path)
	}
	if decode && !f.Decodable() {
		return f, apperrors.Newf(apperrors.KindUnsupportedSource, "conversion.detect",
			"type %s is not supported as a conversion input", f)
	}
	return f, nil
}
