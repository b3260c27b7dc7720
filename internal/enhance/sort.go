package enhance

import (
	"sort"

	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
)

// ByIncreasingMaxViewport sorts sources by ascending max viewport. Sources
// without one keep their relative order after all others.
func ByIncreasingMaxViewport(sources []*ir.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if !a.HasViewport() {
			return false
		}
		return !b.HasViewport() || a.MaxViewport < b.MaxViewport
	})
}

// ByMostEfficientFormat sorts sources by format preference. Formats outside
// the preference list keep their relative order.
func ByMostEfficientFormat(sources []*ir.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return format.Rank(sources[i].Format) < format.Rank(sources[j].Format)
	})
}

func byIncreasingWidth(breakpoints []ir.Breakpoint) {
	sort.SliceStable(breakpoints, func(i, j int) bool {
		return breakpoints[i].Width < breakpoints[j].Width
	})
}
