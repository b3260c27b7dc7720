// Package format describes the image formats the pipeline reads and emits.
package format

import (
	"fmt"
	"mime"
	"strings"
)

// Format represents an image encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatWebP
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatAVIF
)

// PreferredOrder lists output formats from most to least efficient.
var PreferredOrder = []Format{FormatWebP, FormatJPEG}

// String returns the short name used in file extensions and config keys.
func (f Format) String() string {
	switch f {
	case FormatWebP:
		return "webp"
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatAVIF:
		return "avif"
	default:
		return "unknown"
	}
}

// MarshalText encodes f by name.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a format name. Unknown names decode to FormatUnknown.
func (f *Format) UnmarshalText(text []byte) error {
	*f = Parse(string(text))
	return nil
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + f.String()
}

// MIMEType returns the media type used in <source type="...">.
func (f Format) MIMEType() (string, error) {
	if f == FormatUnknown {
		return "", fmt.Errorf("format %q cannot be resolved to a mime type", f)
	}
	t := mime.TypeByExtension(f.Extension())
	if t == "" {
		return "", fmt.Errorf("format %q cannot be resolved to a mime type", f)
	}
	return t, nil
}

// Decodable reports whether the image adapters can read f.
func (f Format) Decodable() bool {
	switch f {
	case FormatWebP, FormatJPEG, FormatPNG, FormatGIF:
		return true
	default:
		return false
	}
}

// Parse maps a format name or extension to a Format.
func Parse(name string) Format {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "webp":
		return FormatWebP
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "avif":
		return FormatAVIF
	default:
		return FormatUnknown
	}
}

// Rank orders f by PreferredOrder. Formats outside the list rank after it.
func Rank(f Format) int {
	for i, p := range PreferredOrder {
		if p == f {
			return i
		}
	}
	return len(PreferredOrder)
}
