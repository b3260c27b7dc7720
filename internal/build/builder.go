// Package build runs the pipeline over a set of documents, performs the
// queued work through the configured adapters and writes the results.
package build

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roboco-io/picturize/internal/adapter"
	"github.com/roboco-io/picturize/internal/config"
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/logging"
	"github.com/roboco-io/picturize/internal/parser"
	"github.com/roboco-io/picturize/internal/parser/markdown"
	"github.com/roboco-io/picturize/internal/pipeline"
)

// Options configures a Builder.
type Options struct {
	Config      *config.Config
	Adapters    adapter.Set
	SourceDir   string // documents keep their path relative to it
	DistDir     string // generated images
	OutDir      string // rewritten documents; defaults to DistDir
	TempDir     string // parent of the staging directory; defaults to the system temp dir
	Concurrency int // concurrent adapter calls; defaults to the CPU count
	DryRun      bool
	Inspector   format.Inspector
	Logger      *zap.Logger
}

// Builder performs one build. It is not reusable.
type Builder struct {
	opts     Options
	pipeline *pipeline.Pipeline
	registry *Registry
	tempDir  string
	logger   *zap.Logger
}

// Document is the outcome for one input document.
type Document struct {
	Source string
	Output string // empty in dry run
	Markup string
	Images int
}

// Report summarizes a build.
type Report struct {
	Documents []Document
	Failed    []string // documents aborted by a directive error
	Generated int64
	CacheHits int64
	Errors    int64 // failed adapter calls
}

// New creates a builder and its staging directory.
func New(opts Options) (*Builder, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.SourceDir == "" {
		opts.SourceDir = "."
	}
	if opts.OutDir == "" {
		opts.OutDir = opts.DistDir
	}

	logger := logging.OrNop(opts.Logger)

	tempDir, err := os.MkdirTemp(opts.TempDir, "picturize-")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "build.New", "failed to create staging directory", err)
	}

	p, err := pipeline.New(pipeline.Options{
		Config: opts.Config,
		Stages: pipeline.Stages{
			Transform: opts.Adapters.Transformer != nil,
			Resize:    opts.Adapters.Resizer != nil,
			Convert:   opts.Adapters.Converter != nil,
		},
		TempDir:   tempDir,
		Root:      opts.SourceDir,
		Inspector: opts.Inspector,
		Logger:    logger.Named("pipeline"),
	})
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	return &Builder{
		opts:     opts,
		pipeline: p,
		registry: NewRegistry(),
		tempDir:  tempDir,
		logger:   logger.Named("build"),
	}, nil
}

// Close removes the staging directory.
func (b *Builder) Close() error {
	return os.RemoveAll(b.tempDir)
}

// Build processes paths. Documents with directive errors are skipped and
// reported in the returned error; the others are still written.
func (b *Builder) Build(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{}
	var docErrs error

	results := make([]*pipeline.Result, 0, len(paths))
	for _, p := range paths {
		result, err := b.process(p)
		if err != nil {
			b.logger.Error("document failed", zap.String("document", p), zap.Error(err))
			report.Failed = append(report.Failed, p)
			docErrs = multierr.Append(docErrs, err)
			continue
		}
		results = append(results, result)
	}

	var work pipeline.Work
	for _, r := range results {
		work.Append(r.Work)
	}

	if err := b.perform(ctx, work, report); err != nil {
		return report, err
	}

	for _, r := range results {
		doc, err := b.write(r)
		if err != nil {
			report.Failed = append(report.Failed, r.Path)
			docErrs = multierr.Append(docErrs, err)
			continue
		}
		report.Documents = append(report.Documents, doc)
	}

	for _, uri := range b.registry.Failures() {
		b.logger.Debug("derivative omitted", zap.String("uri", uri))
	}
	return report, docErrs
}

func (b *Builder) process(p string) (*pipeline.Result, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "build.process", "failed to read document", err)
	}

	content := string(data)
	if parser.DetectFormat(p) == parser.FormatMarkdown {
		if content, err = markdown.Render(data); err != nil {
			return nil, err
		}
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return b.pipeline.Process(parser.Document{Path: abs, Content: content})
}

// perform runs the stages in order. Items within a stage run concurrently.
func (b *Builder) perform(ctx context.Context, work pipeline.Work, report *Report) error {
	if work.Len() == 0 {
		return nil
	}

	if !b.opts.DryRun {
		if err := b.opts.Adapters.Setup(ctx); err != nil {
			return apperrors.Wrap(apperrors.KindAdapter, "build.perform", "adapter setup failed", err)
		}
		defer func() {
			if err := b.opts.Adapters.Teardown(context.WithoutCancel(ctx)); err != nil {
				b.logger.Warn("adapter teardown failed", zap.Error(err))
			}
		}()
	}

	transforms := make([]job, 0, len(work.Transforms))
	for _, w := range work.Transforms {
		transforms = append(transforms, job{
			stage:      "transform",
			uri:        w.URI,
			stagedPath: w.Source.Path,
			run: func(ctx context.Context) ([]byte, error) {
				return b.opts.Adapters.Transformer.Transform(ctx, w.SourcePath, w.Descriptor)
			},
		})
	}

	resizes := make([]job, 0, len(work.Resizes))
	for _, w := range work.Resizes {
		resizes = append(resizes, job{
			stage:      "resize",
			uri:        w.URI,
			stagedPath: w.Breakpoint.Path,
			run: func(ctx context.Context) ([]byte, error) {
				return b.opts.Adapters.Resizer.Resize(ctx, w.SourcePath, w.Breakpoint)
			},
		})
	}

	conversions := make([]job, 0, len(work.Conversions))
	for _, w := range work.Conversions {
		conversions = append(conversions, job{
			stage: "convert",
			uri:   w.URI,
			run: func(ctx context.Context) ([]byte, error) {
				return b.opts.Adapters.Converter.Convert(ctx, w.SourcePath, w.Format)
			},
		})
	}

	for _, jobs := range [][]job{transforms, resizes, conversions} {
		if err := b.runStage(ctx, jobs, report); err != nil {
			return err
		}
	}
	return nil
}

type job struct {
	stage      string
	uri        string
	stagedPath string // where later stages read the output; empty for the last stage
	run        func(ctx context.Context) ([]byte, error)
}

// runStage fans jobs out and waits for all of them. A failing job is logged
// and recorded; only cancellation stops the stage.
func (b *Builder) runStage(ctx context.Context, jobs []job, report *Report) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)

	for _, j := range jobs {
		if !b.registry.Claim(j.uri) {
			atomic.AddInt64(&report.CacheHits, 1)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if b.opts.DryRun {
				b.registry.Resolve(j.uri, j.uri)
				atomic.AddInt64(&report.Generated, 1)
				return nil
			}

			name, err := b.generate(gctx, j)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.Warn("generation failed",
					zap.String("stage", j.stage),
					zap.String("uri", j.uri),
					zap.Error(err))
				b.registry.Fail(j.uri, err)
				atomic.AddInt64(&report.Errors, 1)
				return nil
			}

			b.registry.Resolve(j.uri, name)
			atomic.AddInt64(&report.Generated, 1)
			b.logger.Debug("generated", zap.String("stage", j.stage), zap.String("uri", name))
			return nil
		})
	}

	return g.Wait()
}

func (b *Builder) generate(ctx context.Context, j job) (string, error) {
	data, err := j.run(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindAdapter, "build.generate", j.stage+" failed", err)
	}

	if j.stagedPath != "" {
		if err := os.WriteFile(j.stagedPath, data, 0644); err != nil {
			return "", apperrors.Wrap(apperrors.KindIO, "build.generate", "failed to stage output", err)
		}
	}

	name := HashedName(j.uri, data)
	dest := b.distPath(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, "build.generate", "failed to create output directory", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, "build.generate", "failed to write output", err)
	}
	return name, nil
}

// write renders a processed document and writes it unless this is a dry run.
func (b *Builder) write(r *pipeline.Result) (Document, error) {
	out, err := pipeline.Render(r, b.registry.Generated, b.registry.Emitted)
	if err != nil {
		return Document{}, err
	}

	doc := Document{Source: r.Path, Markup: out, Images: len(r.Images)}
	if b.opts.DryRun {
		return doc, nil
	}

	dest := b.documentPath(r.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Document{}, apperrors.Wrap(apperrors.KindIO, "build.write", "failed to create output directory", err)
	}
	if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
		return Document{}, apperrors.Wrap(apperrors.KindIO, "build.write", "failed to write document", err)
	}
	doc.Output = dest
	return doc, nil
}

// distPath maps an emitted URI to a file under DistDir.
func (b *Builder) distPath(uri string) string {
	return filepath.Join(b.opts.DistDir, filepath.FromSlash(strings.TrimPrefix(uri, "/")))
}

// documentPath keeps the document's position relative to SourceDir.
// Markdown documents are written as HTML.
func (b *Builder) documentPath(source string) string {
	root, err := filepath.Abs(b.opts.SourceDir)
	if err != nil {
		root = b.opts.SourceDir
	}
	rel, err := filepath.Rel(root, source)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(source)
	}
	if parser.DetectFormat(source) == parser.FormatMarkdown {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	}
	return filepath.Join(b.opts.OutDir, rel)
}

// HashedName inserts the first 8 hex digits of the content hash before the
// extension of uri.
func HashedName(uri string, data []byte) string {
	ext := path.Ext(uri)
	sum := fmt.Sprintf("%016x", xxhash.Sum64(data))
	return strings.TrimSuffix(uri, ext) + "." + sum[:8] + ext
}
