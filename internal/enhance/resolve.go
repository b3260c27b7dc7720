package enhance

import (
	"regexp"
	"strings"

	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/ir"
)

var urlPlaceholderPattern = regexp.MustCompile(regexp.QuoteMeta(ir.URLPlaceholderPrefix) + `([^\]]+)\]\]`)

// Prune removes breakpoints whose URI was not generated, then sources left
// without breakpoints.
func Prune(img *ir.ResponsiveImage, generated func(uri string) bool) {
	sources := img.Sources[:0]
	for _, src := range img.Sources {
		kept := src.Breakpoints[:0]
		for _, bp := range src.Breakpoints {
			if generated(bp.URI) {
				kept = append(kept, bp)
			}
		}
		src.Breakpoints = kept
		if len(kept) > 0 {
			sources = append(sources, src)
		}
	}
	img.Sources = sources
}

// ResolveURLs replaces every URL placeholder with the emitted name of its URI.
func ResolveURLs(markup string, resolve func(uri string) string) string {
	return urlPlaceholderPattern.ReplaceAllStringFunc(markup, func(token string) string {
		uri := strings.TrimSuffix(strings.TrimPrefix(token, ir.URLPlaceholderPrefix), "]]")
		return resolve(uri)
	})
}

// CheckPlaceholders fails if markup still holds a placeholder.
func CheckPlaceholders(markup string) error {
	for _, prefix := range []string{ir.ImagePlaceholderPrefix, ir.URLPlaceholderPrefix} {
		if i := strings.Index(markup, prefix); i >= 0 {
			end := i + 80
			if end > len(markup) {
				end = len(markup)
			}
			return apperrors.Newf(apperrors.KindUnknown, "enhance.CheckPlaceholders",
				"unresolved placeholder left in markup: %s", markup[i:end])
		}
	}
	return nil
}
