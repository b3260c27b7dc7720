// Package ir defines the intermediate representation passed between pipeline stages.
// Markup is parsed into ResponsiveImages, each stage rewrites their Sources, and the
// re-assembly stage turns them back into markup.
package ir

import (
	"math"
	"strconv"
	"strings"
)

// DefaultViewport is the reserved viewport key holding the value used when no
// viewport-specific value exists.
const DefaultViewport = "__default"

// MinSize is the lower bound applied to every size value.
const MinSize = 0.1

// Sizes maps a viewport key to a size. Values up to 1.0 are fractions of the
// viewport width, larger values are absolute pixel widths.
type Sizes map[string]float64

// For returns the size for viewport, falling back to the default entry.
func (s Sizes) For(viewport string) float64 {
	if v, ok := s[viewport]; ok {
		return v
	}
	return s[DefaultViewport]
}

// ForViewport is For with an integer viewport.
func (s Sizes) ForViewport(viewport int) float64 {
	return s.For(strconv.Itoa(viewport))
}

// Default returns the default entry.
func (s Sizes) Default() float64 {
	return s[DefaultViewport]
}

// Width converts a size into a pixel width at the given viewport.
func Width(viewport int, size float64) int {
	if size > 1.0 {
		return int(math.Ceil(size))
	}
	return int(math.Ceil(float64(viewport) * size))
}

// RatioOriginal keeps the aspect ratio of the source image.
const RatioOriginal = "original"

// ParseRatio converts a "W:H" ratio into height/width.
// It reports false for RatioOriginal and malformed values.
func ParseRatio(ratio string) (float64, bool) {
	w, h, ok := strings.Cut(ratio, ":")
	if !ok {
		return 0, false
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil || width <= 0 {
		return 0, false
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || height <= 0 {
		return 0, false
	}
	return height / width, true
}
