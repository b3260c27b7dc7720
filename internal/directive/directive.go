// Package directive parses the inline option language used in responsive
// attributes:
//
//	size=1.0,0.5{sm|md};ratio=16:9{1200}
//
// Clauses are separated by ";", values by ",". A value followed by a
// "{v1|v2}" list applies to those viewports, a bare value is the default.
package directive

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/ir"
)

var optionPattern = regexp.MustCompile(`^([^\s{]+)(?:\{([\w|]+)\})?$`)

// Properties maps a property name to its raw values keyed by viewport.
type Properties map[string]map[string]string

// Parse parses a directive string.
func Parse(s string) (Properties, error) {
	props := make(Properties)

	for _, clause := range strings.Split(s, ";") {
		name, options, ok := strings.Cut(clause, "=")
		if !ok || name == "" {
			return nil, apperrors.Newf(apperrors.KindMalformedDirective, "directive.Parse",
				"clause %q of %q must have the form name=value", clause, s)
		}

		values := make(map[string]string)
		for _, option := range strings.Split(options, ",") {
			m := optionPattern.FindStringSubmatch(option)
			if m == nil {
				return nil, apperrors.Newf(apperrors.KindMalformedDirective, "directive.Parse",
					"option %q of property %q is not a value or value{viewport|viewport}", option, name)
			}

			value, viewports := m[1], m[2]
			if viewports == "" {
				values[ir.DefaultViewport] = value
				continue
			}
			for _, vp := range strings.Split(viewports, "|") {
				if vp != "" {
					values[vp] = value
				}
			}
		}

		props[name] = values
	}

	return props, nil
}

// Names returns the property names in sorted order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Floats returns the values of property name parsed as numbers.
// A missing property yields an empty map.
func (p Properties) Floats(name string) (map[string]float64, error) {
	out := make(map[string]float64, len(p[name]))
	for vp, raw := range p[name] {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperrors.Newf(apperrors.KindMalformedDirective, "directive.Floats",
				"%s=%q for viewport %s is not a number", name, raw, vp)
		}
		out[vp] = f
	}
	return out, nil
}
