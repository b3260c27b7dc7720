package resizing

import (
	"sort"

	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
)

// Work is a pending resize of SourcePath to Breakpoint.Width, published as URI.
type Work struct {
	SourcePath string        `json:"source_path"`
	Breakpoint ir.Breakpoint `json:"breakpoint"`
	URI        string        `json:"uri"`
}

// Apply allocates breakpoints for img, attaches them to the source anchored at
// each interval's end viewport and returns the resizes to perform.
// img.Sources is replaced by one source per viewport.
func Apply(img *ir.ResponsiveImage, opts Options, inspector format.Inspector) ([]Work, error) {
	byViewport := make(map[int]*ir.Source, len(img.Sources))
	anchors := make([]anchor, 0, len(img.Sources))
	order := make([]*ir.Source, 0, len(img.Sources))

	for _, src := range img.Sources {
		if !src.HasViewport() {
			continue
		}
		ratio, err := sourceRatio(img, src, inspector)
		if err != nil {
			return nil, err
		}
		if _, seen := byViewport[src.MaxViewport]; !seen {
			order = append(order, src)
		}
		byViewport[src.MaxViewport] = src
		anchors = append(anchors, anchor{path: src.Path, size: src.Size, ratio: ratio, viewport: src.MaxViewport})
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].viewport < anchors[j].viewport
	})

	original := anchor{path: img.OriginalPath}
	if needsOriginal(anchors, opts.MaxViewport) {
		ratio, err := imageRatio(img.OriginalPath, inspector)
		if err != nil {
			return nil, err
		}
		original.ratio = ratio
	}

	density := 1
	if opts.SupportRetina {
		density = retinaDensity
	}

	limits := cropWidths(img.Sources)

	delimiters := buildDelimiters(anchors, original, img.Sizes, opts)
	intervals := buildIntervals(delimiters, opts.MaxBreakpointsCount, density)

	var work []Work
	for _, alloc := range allocate(intervals, opts.MinSizeDifference) {
		src, ok := byViewport[alloc.viewport]
		if !ok {
			src = &ir.Source{
				Path:        alloc.path,
				MaxViewport: alloc.viewport,
				Size:        img.Sizes.Default(),
				Ratio:       ir.RatioOriginal,
			}
			byViewport[alloc.viewport] = src
			order = append(order, src)
		}

		for _, width := range alloc.widths {
			// A crop is staged at its 1x width; wider renditions would be upscaled.
			if limit, ok := limits[alloc.path]; ok && width >= limit {
				continue
			}
			uri := ir.ResizingURI(opts.OutputDir, alloc.path, width)
			bp := ir.Breakpoint{
				Path:  ir.StagingPath(opts.TempDir, uri),
				URI:   uri,
				Width: width,
			}
			src.AddBreakpoint(bp)
			work = append(work, Work{SourcePath: src.Path, Breakpoint: bp, URI: uri})
		}
	}

	img.Sources = order
	return work, nil
}

// cropWidths maps each staged crop to its pixel width.
func cropWidths(sources []*ir.Source) map[string]int {
	limits := make(map[string]int)
	for _, src := range sources {
		for _, bp := range src.Breakpoints {
			if bp.Path == src.Path && bp.Width > limits[src.Path] {
				limits[src.Path] = bp.Width
			}
		}
	}
	return limits
}

func needsOriginal(anchors []anchor, maxViewport int) bool {
	for _, a := range anchors {
		if a.viewport > maxViewport {
			return false
		}
	}
	return true
}

// sourceRatio returns height/width of the image src will be cut from.
func sourceRatio(img *ir.ResponsiveImage, src *ir.Source, inspector format.Inspector) (float64, error) {
	if src.CustomPath == "" {
		if ratio, ok := ir.ParseRatio(src.Ratio); ok {
			return ratio, nil
		}
	}
	path := img.OriginalPath
	if src.CustomPath != "" {
		path = src.CustomPath
	}
	return imageRatio(path, inspector)
}

func imageRatio(path string, inspector format.Inspector) (float64, error) {
	w, h, err := inspector.Dimensions(path)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindUnsupportedSource, "resizing.Apply", "failed to read image dimensions", err)
	}
	if w <= 0 {
		return 0, apperrors.Newf(apperrors.KindUnsupportedSource, "resizing.Apply", "%s has no width", path)
	}
	return float64(h) / float64(w), nil
}
