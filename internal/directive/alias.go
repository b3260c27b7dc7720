package directive

import (
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/ir"
)

// ResolveAliases rewrites the keys of m through aliases. Keys without an alias
// pass through. When an alias and its canonical key are both present the
// canonical entry wins.
func ResolveAliases[V any](m map[string]V, aliases map[string]string) map[string]V {
	out := make(map[string]V, len(m))
	for key, value := range m {
		if canonical, ok := aliases[key]; ok {
			if _, explicit := m[canonical]; explicit && canonical != key {
				continue
			}
			out[canonical] = value
			continue
		}
		out[key] = value
	}
	return out
}

// GuardReservedAlias fails if aliases redefines the default viewport key.
func GuardReservedAlias(aliases map[string]string) error {
	if _, ok := aliases[ir.DefaultViewport]; ok {
		return apperrors.Newf(apperrors.KindConfig, "directive.GuardReservedAlias",
			"%q is reserved and cannot be used as a viewport alias", ir.DefaultViewport)
	}
	return nil
}
