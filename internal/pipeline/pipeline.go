// Package pipeline runs the derivation stages over one markup document:
// extraction, art direction, resizing and conversion, and renders the
// resulting <picture> markup once the queued work has been performed.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roboco-io/picturize/internal/artdirection"
	"github.com/roboco-io/picturize/internal/config"
	"github.com/roboco-io/picturize/internal/conversion"
	"github.com/roboco-io/picturize/internal/enhance"
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
	"github.com/roboco-io/picturize/internal/logging"
	"github.com/roboco-io/picturize/internal/parser"
	"github.com/roboco-io/picturize/internal/parser/markup"
	"github.com/roboco-io/picturize/internal/resizing"
)

// Stages selects the stages that have an adapter.
type Stages struct {
	Transform bool
	Resize    bool
	Convert   bool
}

// Options configures a Pipeline.
type Options struct {
	Config    *config.Config
	Stages    Stages
	TempDir   string // where generated bytes are staged
	Root      string // resolves relative path alias targets
	Inspector format.Inspector
	Extractor parser.Extractor // defaults to the markup extractor
	Logger    *zap.Logger
}

// Pipeline processes documents. It holds no per-document state and may be
// shared between goroutines.
type Pipeline struct {
	cfg       *config.Config
	stages    Stages
	tempDir   string
	inspector format.Inspector
	extractor parser.Extractor
	logger    *zap.Logger
}

// New validates the configuration and creates a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, apperrors.New(apperrors.KindConfig, "pipeline.New", "no configuration")
	}
	if err := config.Validate(opts.Config); err != nil {
		return nil, err
	}

	inspector := opts.Inspector
	if inspector == nil {
		inspector = format.FileInspector{}
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = markup.New(parser.OptionsFromConfig(opts.Config, opts.Root))
	}

	return &Pipeline{
		cfg:       opts.Config,
		stages:    opts.Stages,
		tempDir:   opts.TempDir,
		inspector: inspector,
		extractor: extractor,
		logger:    logging.OrNop(opts.Logger),
	}, nil
}

// Result is a processed document waiting for its work to be performed.
type Result struct {
	Path   string                `json:"path"`
	Markup string                `json:"markup"` // holds one image placeholder per image
	Images []*ir.ResponsiveImage `json:"images"`
	Work   Work                  `json:"work"`
}

// Process extracts the images of doc and runs every enabled stage on them.
// Directive errors abort the document. Errors about a single image source
// only drop that image's sources.
func (p *Pipeline) Process(doc parser.Document) (*Result, error) {
	extraction, err := p.extractor.Extract(doc)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:   doc.Path,
		Markup: extraction.Markup,
		Images: extraction.Images,
	}

	for _, img := range extraction.Images {
		work, err := p.processImage(img)
		if err != nil {
			if !apperrors.IsKind(err, apperrors.KindUnsupportedSource) {
				return nil, fmt.Errorf("%s: image %s: %w", doc.Path, img.OriginalPath, err)
			}
			p.logger.Warn("skipping image",
				zap.String("document", doc.Path),
				zap.String("image", img.OriginalPath),
				zap.Error(err))
			img.Sources = img.Sources[:0]
			continue
		}
		result.Work.Append(work)
	}

	p.logger.Debug("document processed",
		zap.String("document", doc.Path),
		zap.Int("images", len(result.Images)),
		zap.Int("transforms", len(result.Work.Transforms)),
		zap.Int("resizes", len(result.Work.Resizes)),
		zap.Int("conversions", len(result.Work.Conversions)))

	return result, nil
}

func (p *Pipeline) processImage(img *ir.ResponsiveImage) (Work, error) {
	var work Work
	outputDir := p.cfg.Paths.OutputDir

	if p.stages.Transform {
		descriptors, err := artdirection.Normalize(img.ArtDirection, artdirection.Defaults{
			Ratio:           p.cfg.ArtDirection.DefaultRatio,
			Transformations: p.cfg.ArtDirection.DefaultTransformations,
			ViewportAliases: p.cfg.ViewportAliases,
		}, img.Sizes)
		if err != nil {
			return Work{}, err
		}
		work.Transforms = artdirection.Apply(img, descriptors, outputDir, p.tempDir)
	}

	if p.stages.Resize {
		rs := p.cfg.ResolutionSwitching
		resizes, err := resizing.Apply(img, resizing.Options{
			MinViewport:         rs.MinViewport,
			MaxViewport:         rs.MaxViewport,
			MaxBreakpointsCount: rs.MaxBreakpointsCount,
			MinSizeDifference:   rs.MinSizeDifference,
			SupportRetina:       rs.SupportRetina,
			OutputDir:           outputDir,
			TempDir:             p.tempDir,
		}, p.inspector)
		if err != nil {
			return Work{}, err
		}
		work.Resizes = resizes
	}

	conversions, err := conversion.Apply(img, conversion.Options{
		Convert:   p.stages.Convert,
		Formats:   p.cfg.Conversion.EnabledFormats.Formats(),
		OutputDir: outputDir,
	}, p.inspector)
	if err != nil {
		return Work{}, err
	}
	work.Conversions = conversions

	return work, nil
}

// Render prunes breakpoints that were not generated, assembles the <picture>
// elements and replaces every URL placeholder with the emitted name.
func Render(result *Result, generated func(uri string) bool, resolve func(uri string) string) (string, error) {
	for _, img := range result.Images {
		enhance.Prune(img, generated)
	}

	out, err := enhance.Enhance(result.Markup, result.Images)
	if err != nil {
		return "", fmt.Errorf("%s: %w", result.Path, err)
	}
	out = enhance.ResolveURLs(out, resolve)

	if err := enhance.CheckPlaceholders(out); err != nil {
		return "", fmt.Errorf("%s: %w", result.Path, err)
	}
	return out, nil
}
