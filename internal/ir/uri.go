package ir

import (
	"math"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roboco-io/picturize/internal/format"
)

// Placeholder prefixes. Neither may survive in emitted markup.
const (
	ImagePlaceholderPrefix = "[[responsive:"
	URLPlaceholderPrefix   = "[[responsive-url:"
	placeholderSuffix      = "]]"
)

// Placeholder returns the token standing in for the image at resolvedPath.
func Placeholder(resolvedPath string) string {
	return ImagePlaceholderPrefix + resolvedPath + placeholderSuffix
}

// URLPlaceholder returns the token standing in for the emitted name of uri.
func URLPlaceholder(uri string) string {
	return URLPlaceholderPrefix + uri + placeholderSuffix
}

// GenerateURI builds outputDir/<name><body><ext> from the file name of p.
func GenerateURI(outputDir, p, body string) string {
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return path.Join(outputDir, name) + body + ext
}

// FormatSize renders a size the way it appears in file names (size × 100).
func FormatSize(size float64) string {
	return strconv.FormatFloat(math.Round(size*1e6)/1e4, 'f', -1, 64)
}

// TransformationURI names the crop described by d.
func TransformationURI(outputDir, imagePath string, d Descriptor) string {
	body := "-tb_" + strconv.Itoa(d.MaxViewport)
	if d.IsCustom() {
		body += "-p-s_" + FormatSize(d.Size)
	} else {
		body += "-r_" + strings.Replace(d.Ratio, ":", "_", 1) + "-s_" + FormatSize(d.Size)
	}
	return GenerateURI(outputDir, imagePath, body)
}

// ResizingURI names the breakpoint of anchorPath at width.
func ResizingURI(outputDir, anchorPath string, width int) string {
	return GenerateURI(outputDir, anchorPath, "-b_"+strconv.Itoa(width))
}

// ConversionURI names the re-encoding of uri to f.
func ConversionURI(outputDir, uri string, f format.Format) string {
	return ChangeExtension(GenerateURI(outputDir, uri, "-c"), f)
}

// ConversionFallbackURI names the whole-image re-encoding of imagePath to f.
func ConversionFallbackURI(outputDir, imagePath string, f format.Format) string {
	base := filepath.Base(imagePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return ConversionURI(outputDir, path.Join(outputDir, name+f.Extension()), f)
}

// ChangeExtension replaces the extension of p with the one of f.
func ChangeExtension(p string, f format.Format) string {
	return strings.TrimSuffix(p, path.Ext(p)) + f.Extension()
}

// StagingPath returns where the bytes for uri are written before emission.
func StagingPath(tempDir, uri string) string {
	return filepath.Join(tempDir, path.Base(uri))
}
