// Package imaging crops, resizes and re-encodes images in process.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"

	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
)

// DefaultQuality is the lossy encoding quality.
const DefaultQuality = 80

// Adapter implements the transform, resize and convert operations with
// disintegration/imaging. WebP output is encoded with gen2brain/webp.
type Adapter struct {
	quality int
}

// New creates an adapter. A quality outside 1..100 selects DefaultQuality.
func New(quality int) *Adapter {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Adapter{quality: quality}
}

// Transform crops the image at sourcePath to the ratio of d, scaled to its width.
// Custom images and the "original" ratio are only scaled.
func (a *Adapter) Transform(ctx context.Context, sourcePath string, d ir.Descriptor) ([]byte, error) {
	src, f, err := a.open(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	width := d.Width()
	var out image.Image
	if ratio, ok := ir.ParseRatio(d.Ratio); ok && !d.IsCustom() {
		height := int(math.Ceil(float64(width) * ratio))
		out = imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	} else {
		out = imaging.Resize(src, width, 0, imaging.Lanczos)
	}

	return a.encode(out, f)
}

// Resize scales the image at sourcePath to the breakpoint width.
func (a *Adapter) Resize(ctx context.Context, sourcePath string, bp ir.Breakpoint) ([]byte, error) {
	src, f, err := a.open(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	return a.encode(imaging.Resize(src, bp.Width, 0, imaging.Lanczos), f)
}

// Convert re-encodes the image at sourcePath to f.
func (a *Adapter) Convert(ctx context.Context, sourcePath string, f format.Format) ([]byte, error) {
	src, _, err := a.open(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	return a.encode(src, f)
}

// open decodes sourcePath and reports its format, read from the byte signature.
func (a *Adapter) open(ctx context.Context, sourcePath string) (image.Image, format.Format, error) {
	if err := ctx.Err(); err != nil {
		return nil, format.FormatUnknown, err
	}

	f, err := format.DetectFile(sourcePath)
	if err != nil {
		return nil, format.FormatUnknown, err
	}
	if !f.Decodable() {
		return nil, f, fmt.Errorf("cannot decode %s: unsupported format %s", sourcePath, f)
	}

	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, f, fmt.Errorf("failed to open image: %w", err)
	}
	return img, f, nil
}

func (a *Adapter) encode(img image.Image, f format.Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch f {
	case format.FormatWebP:
		err = webp.Encode(&buf, img, webp.Options{Quality: a.quality})
	case format.FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(a.quality))
	case format.FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case format.FormatGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	default:
		return nil, fmt.Errorf("cannot encode to %s", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}
