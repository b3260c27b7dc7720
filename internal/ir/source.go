package ir

import (
	"github.com/roboco-io/picturize/internal/format"
)

// Descriptor is a normalized art-direction transformation.
// Exactly one of Ratio and CustomPath is set.
type Descriptor struct {
	MaxViewport int     `json:"max_viewport"`
	Size        float64 `json:"size"`
	Ratio       string  `json:"ratio,omitempty"`
	CustomPath  string  `json:"custom_path,omitempty"`
}

// IsCustom returns true if the descriptor points at a replacement image.
func (d Descriptor) IsCustom() bool {
	return d.CustomPath != ""
}

// Width returns the pixel width of the crop.
func (d Descriptor) Width() int {
	return Width(d.MaxViewport, d.Size)
}

// Breakpoint is one rendition of a source at a given width.
type Breakpoint struct {
	Path  string `json:"path"` // where the generated bytes are staged
	URI   string `json:"uri"`
	Width int    `json:"width"`
}

// Source is a group of breakpoints sharing viewport, ratio and format.
type Source struct {
	Path        string        `json:"path"` // image the breakpoints are derived from
	MaxViewport int           `json:"max_viewport,omitempty"`
	Size        float64       `json:"size"`
	Ratio       string        `json:"ratio,omitempty"`
	CustomPath  string        `json:"custom_path,omitempty"`
	Format      format.Format `json:"format,omitempty"`
	Breakpoints []Breakpoint  `json:"breakpoints"`
}

// HasViewport returns true for sources anchored at a max viewport.
func (s *Source) HasViewport() bool {
	return s.MaxViewport > 0
}

// Clone returns a deep copy.
func (s *Source) Clone() *Source {
	c := *s
	c.Breakpoints = make([]Breakpoint, len(s.Breakpoints))
	copy(c.Breakpoints, s.Breakpoints)
	return &c
}

// AddBreakpoint appends bp to the source.
func (s *Source) AddBreakpoint(bp Breakpoint) {
	s.Breakpoints = append(s.Breakpoints, bp)
}
