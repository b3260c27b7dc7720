package format

import (
	"fmt"
	"image"
	"io"
	"os"

	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Inspector reads facts about image files on disk.
type Inspector interface {
	// Format detects the encoding from the file's byte signature.
	Format(path string) (Format, error)

	// Dimensions returns the pixel size of the image.
	Dimensions(path string) (width, height int, err error)
}

// FileInspector is the Inspector backed by the local file system.
type FileInspector struct{}

// Format implements Inspector.
func (FileInspector) Format(path string) (Format, error) {
	return DetectFile(path)
}

// Dimensions implements Inspector.
func (FileInspector) Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// DetectFile detects the format of a file by its magic bytes.
// The file extension is never consulted.
func DetectFile(path string) (Format, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	return fromMIME(m), nil
}

// DetectFormatFromReader detects the format by reading magic bytes from r.
func DetectFormatFromReader(r io.Reader) (Format, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	return fromMIME(m), nil
}

func fromMIME(m *mimetype.MIME) Format {
	switch {
	case m.Is("image/webp"):
		return FormatWebP
	case m.Is("image/jpeg"):
		return FormatJPEG
	case m.Is("image/png"):
		return FormatPNG
	case m.Is("image/gif"):
		return FormatGIF
	case m.Is("image/avif"):
		return FormatAVIF
	default:
		return FormatUnknown
	}
}
