// Package resizing allocates resized breakpoints across viewport intervals.
//
// Narrow viewports get the budget first. An interval that cannot use its
// breakpoints (their estimated sizes would be too close to each other) passes
// them on to the next, wider interval; the widest interval drops what it
// cannot use.
package resizing

import (
	"math"

	"github.com/roboco-io/picturize/internal/ir"
)

// retinaDensity multiplies widths when high density screens are supported.
const retinaDensity = 2

// Options configures the allocation.
type Options struct {
	MinViewport         int
	MaxViewport         int
	MaxBreakpointsCount int
	MinSizeDifference   float64 // KB
	SupportRetina       bool
	OutputDir           string
	TempDir             string
}

// delimiter bounds an interval. Its width is computed per interval from the
// size of the interval's end delimiter.
type delimiter struct {
	path     string
	size     float64
	ratio    float64
	viewport int
}

type boundary struct {
	delimiter
	width int
}

type interval struct {
	start boundary
	end   boundary
	count int
}

// anchor is an art-direction source seen by the allocation.
type anchor struct {
	path     string
	size     float64
	ratio    float64
	viewport int
}

func buildDelimiters(anchors []anchor, original anchor, sizes ir.Sizes, opts Options) []delimiter {
	var first, last *anchor
	for i := range anchors {
		a := &anchors[i]
		if first == nil && a.viewport > opts.MinViewport {
			first = a
		}
		if a.viewport > opts.MaxViewport {
			last = a
		}
	}

	// A synthetic min delimiter has ratio 0 and therefore an estimated size of 0.
	minDelim := delimiter{size: sizes.ForViewport(opts.MaxViewport), viewport: opts.MinViewport}
	if first != nil {
		minDelim = delimiter{path: first.path, size: first.size, ratio: first.ratio, viewport: opts.MinViewport}
	}

	maxDelim := delimiter{path: original.path, size: sizes.ForViewport(opts.MaxViewport), ratio: original.ratio, viewport: opts.MaxViewport}
	if last != nil {
		maxDelim = delimiter{path: last.path, size: last.size, ratio: last.ratio, viewport: opts.MaxViewport}
	}

	delimiters := []delimiter{minDelim}
	for _, a := range anchors {
		if a.viewport > opts.MinViewport && a.viewport < opts.MaxViewport {
			delimiters = append(delimiters, delimiter{path: a.path, size: a.size, ratio: a.ratio, viewport: a.viewport})
		}
	}
	return append(delimiters, maxDelim)
}

// buildIntervals splits budget across the gaps between delimiters. The
// remainder of the division goes to the lowest intervals.
func buildIntervals(delimiters []delimiter, budget int, density int) []*interval {
	n := len(delimiters) - 1
	if n <= 0 {
		return nil
	}
	per := budget / n
	remainder := budget % n

	intervals := make([]*interval, 0, n)
	for i := 1; i <= n; i++ {
		prev, cur := delimiters[i-1], delimiters[i]
		count := per
		if remainder >= i {
			count++
		}
		intervals = append(intervals, &interval{
			start: boundary{delimiter: prev, width: ir.Width(prev.viewport, cur.size) * density},
			end:   boundary{delimiter: cur, width: ir.Width(cur.viewport, cur.size) * density},
			count: count,
		})
	}
	return intervals
}

func estimateSize(width int, ratio float64) float64 {
	height := math.Ceil(float64(width) * ratio)
	return height * float64(width)
}

func toKB(bytes float64) float64 {
	return bytes / 1024
}

// candidateWidths spaces count widths evenly inside the interval.
func candidateWidths(iv *interval, count int) []int {
	unit := (iv.end.width - iv.start.width) / (count + 1)
	widths := make([]int, count)
	for i := range widths {
		widths[i] = iv.start.width + unit*(i+1)
	}
	return widths
}

// wideEnough checks that every step in [start, ...widths, end] grows the
// estimated size by at least minDiff KB. Breakpoints share the end ratio.
func wideEnough(iv *interval, widths []int, minDiff float64) bool {
	sizes := make([]float64, 0, len(widths)+2)
	sizes = append(sizes, toKB(estimateSize(iv.start.width, iv.start.ratio)))
	for _, w := range widths {
		sizes = append(sizes, toKB(estimateSize(w, iv.end.ratio)))
	}
	sizes = append(sizes, toKB(estimateSize(iv.end.width, iv.end.ratio)))

	for i := 1; i < len(sizes); i++ {
		if sizes[i]-sizes[i-1] < minDiff {
			return false
		}
	}
	return true
}

// generate returns the widths that fit iv, handing each rejected slot to next.
func generate(iv, next *interval, minDiff float64) []int {
	for iv.count > 0 {
		widths := candidateWidths(iv, iv.count)
		if wideEnough(iv, widths, minDiff) {
			return widths
		}
		iv.count--
		if next != nil {
			next.count++
		}
	}
	return nil
}

// starved reports whether the interval's end image is too small to host a
// single breakpoint.
func starved(iv *interval, minDiff float64) bool {
	return toKB(estimateSize(iv.end.width, iv.end.ratio)) < minDiff*2
}

// allocation is the widths chosen for one interval.
type allocation struct {
	viewport int
	path     string
	ratio    float64
	widths   []int
}

func allocate(intervals []*interval, minDiff float64) []allocation {
	var out []allocation
	for i, iv := range intervals {
		var next *interval
		if i+1 < len(intervals) {
			next = intervals[i+1]
		}

		if iv.count == 0 {
			continue
		}
		if starved(iv, minDiff) {
			if next != nil {
				next.count += iv.count
			}
			continue
		}

		widths := generate(iv, next, minDiff)
		if len(widths) == 0 {
			continue
		}
		out = append(out, allocation{
			viewport: iv.end.viewport,
			path:     iv.end.path,
			ratio:    iv.end.ratio,
			widths:   widths,
		})
	}
	return out
}
