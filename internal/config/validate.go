package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/roboco-io/picturize/internal/directive"
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/ir"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("ratio", validateRatio)
	return v
}

func validateRatio(fl validator.FieldLevel) bool {
	return isRatio(fl.Field().String())
}

func isRatio(s string) bool {
	if s == ir.RatioOriginal {
		return true
	}
	_, ok := ir.ParseRatio(s)
	return ok
}

// Validate checks cfg before any document is processed.
func Validate(cfg *Config) error {
	const op = "config.Validate"

	if err := directive.GuardReservedAlias(cfg.ViewportAliases); err != nil {
		return err
	}

	if err := validate.Struct(cfg); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return apperrors.New(apperrors.KindConfig, op, strings.Join(msgs, "; "))
	}

	keys := make([]string, 0, len(cfg.ArtDirection.DefaultTransformations))
	for key := range cfg.ArtDirection.DefaultTransformations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		t := cfg.ArtDirection.DefaultTransformations[key]
		if t.Ratio != "" && !isRatio(t.Ratio) {
			return apperrors.Newf(apperrors.KindConfig, op,
				"artDirection.defaultTransformations.%s.ratio %q must be W:H or %q", key, t.Ratio, ir.RatioOriginal)
		}
	}

	if cfg.Conversion.Converter != nil && len(cfg.Conversion.EnabledFormats.Formats()) == 0 {
		return apperrors.New(apperrors.KindConfig, op,
			"conversion.converter is set but no format is enabled in conversion.enabledFormats")
	}

	for i, alias := range cfg.Paths.Aliases {
		if alias.Prefix == "" {
			return apperrors.Newf(apperrors.KindConfig, op, "paths.aliases entry %d has an empty prefix", i)
		}
	}

	return nil
}
