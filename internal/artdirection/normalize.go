// Package artdirection turns per-image and default transformations into crop
// descriptors and queues the crops as work.
package artdirection

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/roboco-io/picturize/internal/directive"
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/ir"
)

var maxViewportPattern = regexp.MustCompile(`^\d+$`)

// Defaults holds the configured transformations applied to every image.
type Defaults struct {
	Ratio           string
	Transformations map[string]ir.Transformation
	ViewportAliases map[string]string
}

// Normalize merges inline over default transformations and returns one
// descriptor per viewport, ordered by ascending viewport.
func Normalize(inline *ir.InlineArtDirection, defaults Defaults, sizes ir.Sizes) ([]ir.Descriptor, error) {
	if inline == nil {
		inline = &ir.InlineArtDirection{}
	}

	merged := directive.ResolveAliases(filterDefaults(defaults, inline.Ignore), defaults.ViewportAliases)
	for key, t := range directive.ResolveAliases(inline.Transformations, defaults.ViewportAliases) {
		merged[key] = t
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	descriptors := make([]ir.Descriptor, 0, len(keys))
	for _, key := range keys {
		if !maxViewportPattern.MatchString(key) {
			return nil, apperrors.Newf(apperrors.KindInvalidViewport, "artdirection.Normalize",
				"%s is not a valid transformation name. Have you used an alias without defining it?", key)
		}
		viewport, err := strconv.Atoi(key)
		if err != nil || viewport <= 0 {
			return nil, apperrors.Newf(apperrors.KindInvalidViewport, "artdirection.Normalize",
				"%s is not a valid transformation name, viewports must be positive", key)
		}

		t := merged[key]
		d := ir.Descriptor{
			MaxViewport: viewport,
			Size:        sizes.For(key),
		}
		if t.IsCustom() {
			d.CustomPath = t.Path
		} else {
			d.Ratio = t.Ratio
			if d.Ratio == "" {
				d.Ratio = defaults.Ratio
			}
		}
		descriptors = append(descriptors, d)
	}

	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].MaxViewport < descriptors[j].MaxViewport
	})

	return descriptors, nil
}

func filterDefaults(defaults Defaults, ignore ir.IgnoreSpec) map[string]ir.Transformation {
	out := make(map[string]ir.Transformation, len(defaults.Transformations))
	if ignore.All {
		return out
	}

	ignored := make(map[string]bool, len(ignore.Keys))
	for _, key := range ignore.Keys {
		ignored[key] = true
		if canonical, ok := defaults.ViewportAliases[key]; ok {
			ignored[canonical] = true
		}
	}

	for key, t := range defaults.Transformations {
		canonical, aliased := defaults.ViewportAliases[key]
		if ignored[key] || (aliased && ignored[canonical]) {
			continue
		}
		out[key] = t
	}
	return out
}
