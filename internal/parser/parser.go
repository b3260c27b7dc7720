// Package parser provides the interface for locating responsive images in
// documents, together with document format detection and image path resolution.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/roboco-io/picturize/internal/config"
	"github.com/roboco-io/picturize/internal/ir"
)

// Extractor finds responsive images in markup.
type Extractor interface {
	// Extract returns the images of doc and the markup with every processed
	// tag replaced by its placeholder.
	Extract(doc Document) (*Extraction, error)
}

// Document is one markup document.
type Document struct {
	Path    string // used to resolve relative image paths
	Content string
}

// Dir returns the directory relative image paths are resolved against.
func (d Document) Dir() string {
	if d.Path == "" {
		return "."
	}
	return filepath.Dir(d.Path)
}

// Extraction is the result of Extract.
type Extraction struct {
	Markup string
	Images []*ir.ResponsiveImage
}

// Format represents a document format.
type Format int

const (
	FormatUnknown Format = iota
	FormatHTML
	FormatMarkdown
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// DetectFormat detects the document format from the file path.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".vue", ".tmpl":
		return FormatHTML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatUnknown
	}
}

// DetectFormatFromReader detects HTML by content for files without a known extension.
func DetectFormatFromReader(r io.Reader) (Format, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to sniff document: %w", err)
	}
	if m.Is("text/html") {
		return FormatHTML, nil
	}
	return FormatUnknown, nil
}

// Options contains extractor configuration.
type Options struct {
	DefaultSize     float64
	ViewportAliases map[string]string
	Resolver        PathResolver
}

// OptionsFromConfig builds Options from the build configuration.
// Relative alias targets are resolved against root.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		DefaultSize:     cfg.DefaultSize,
		ViewportAliases: cfg.ViewportAliases,
		Resolver: PathResolver{
			Aliases: cfg.Paths.Aliases,
			Root:    root,
		},
	}
}

// PathResolver maps image paths written in markup to files on disk.
type PathResolver struct {
	Aliases config.PathAliases
	Root    string
}

// Resolve tries each alias prefix in order, then falls back to resolving
// imagePath relative to dir.
func (r PathResolver) Resolve(dir, imagePath string) string {
	for _, alias := range r.Aliases {
		if strings.HasPrefix(imagePath, alias.Prefix) {
			target := alias.Target
			if !filepath.IsAbs(target) && r.Root != "" {
				target = filepath.Join(r.Root, target)
			}
			return filepath.Join(target, strings.TrimPrefix(imagePath, alias.Prefix))
		}
	}

	if filepath.IsAbs(imagePath) {
		return filepath.Clean(imagePath)
	}
	return filepath.Join(dir, imagePath)
}
