package pipeline

import (
	"github.com/roboco-io/picturize/internal/artdirection"
	"github.com/roboco-io/picturize/internal/conversion"
	"github.com/roboco-io/picturize/internal/resizing"
)

// Work is the generation queued by a document, one list per stage.
// A stage's inputs are outputs of the previous stage, so the lists must be
// performed in order.
type Work struct {
	Transforms  []artdirection.Work `json:"transforms"`
	Resizes     []resizing.Work     `json:"resizes"`
	Conversions []conversion.Work   `json:"conversions"`
}

// Append adds the items of other.
func (w *Work) Append(other Work) {
	w.Transforms = append(w.Transforms, other.Transforms...)
	w.Resizes = append(w.Resizes, other.Resizes...)
	w.Conversions = append(w.Conversions, other.Conversions...)
}

// Len returns the number of queued items.
func (w Work) Len() int {
	return len(w.Transforms) + len(w.Resizes) + len(w.Conversions)
}
