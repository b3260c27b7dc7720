// Package markup implements parser.Extractor with tag patterns instead of a
// full HTML parser. Two tag shapes are recognised: self-closing <img .../>
// elements and any element carrying a responsive-bg attribute.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roboco-io/picturize/internal/directive"
	apperrors "github.com/roboco-io/picturize/internal/errors"
	"github.com/roboco-io/picturize/internal/ir"
	"github.com/roboco-io/picturize/internal/parser"
)

var (
	imgTagPattern        = regexp.MustCompile(`(?i)<img\b[^<>]*/>`)
	backgroundTagPattern = regexp.MustCompile(`(?is)<[a-z]\w*[^<>]*\sresponsive-bg="[^"]+"[^<>]*>`)

	responsiveAttr   = regexp.MustCompile(`\sresponsive(?:="([^"]*)")?(?:\s|/|>)`)
	srcAttr          = regexp.MustCompile(`\ssrc="([^"]+)"`)
	backgroundAttr   = regexp.MustCompile(`\sresponsive-bg="([^"]+)"`)
	artDirectionAttr = regexp.MustCompile(`\sresponsive-ad(?:="([^"]*)")?(?:\s|/|>)`)
	adIgnoreAttr     = regexp.MustCompile(`\sresponsive-ad-ignore(?:="([^"]*)")?(?:\s|/|>)`)
)

// BackgroundMarker is added to background-image containers.
const BackgroundMarker = "data-responsive-bg"

type tagKind int

const (
	kindImg tagKind = iota
	kindBackground
)

type tag struct {
	text string
	kind tagKind
}

// Extractor is the pattern-based parser.Extractor.
type Extractor struct {
	opts parser.Options
}

// New creates an extractor.
func New(opts parser.Options) *Extractor {
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = 1.0
	}
	return &Extractor{opts: opts}
}

// Extract implements parser.Extractor.
func (e *Extractor) Extract(doc parser.Document) (*parser.Extraction, error) {
	markup := doc.Content
	images := make([]*ir.ResponsiveImage, 0)

	for _, t := range findTags(doc.Content) {
		options, hasOptions, imagePath, ok := matchAttributes(t)
		if !ok {
			continue
		}

		resolved := e.opts.Resolver.Resolve(doc.Dir(), imagePath)

		sizes, err := e.parseSizes(options, hasOptions)
		if err != nil {
			return nil, fmt.Errorf("%s: image %s: %w", doc.Path, imagePath, err)
		}

		fallback := t.text
		if t.kind == kindBackground {
			fallback = backgroundLoader(imagePath)
		}

		img := ir.NewResponsiveImage(resolved, fallback, sizes)

		ad, err := e.parseArtDirection(t.text, doc.Dir(), imagePath)
		if err != nil {
			return nil, fmt.Errorf("%s: image %s: %w", doc.Path, imagePath, err)
		}
		img.ArtDirection = ad

		images = append(images, img)
		markup = strings.Replace(markup, t.text, replacement(t, resolved), 1)
	}

	return &parser.Extraction{Markup: markup, Images: images}, nil
}

func findTags(content string) []tag {
	var tags []tag
	for _, m := range imgTagPattern.FindAllString(content, -1) {
		tags = append(tags, tag{text: m, kind: kindImg})
	}
	for _, m := range backgroundTagPattern.FindAllString(content, -1) {
		tags = append(tags, tag{text: m, kind: kindBackground})
	}
	return tags
}

// matchAttributes requires the responsive marker plus src (img) or
// responsive-bg (background).
func matchAttributes(t tag) (options string, hasOptions bool, imagePath string, ok bool) {
	rm := responsiveAttr.FindStringSubmatchIndex(t.text)
	if rm == nil {
		return "", false, "", false
	}
	if rm[2] >= 0 && rm[3] > rm[2] {
		options, hasOptions = t.text[rm[2]:rm[3]], true
	}

	pathAttr := srcAttr
	if t.kind == kindBackground {
		pathAttr = backgroundAttr
	}
	pm := pathAttr.FindStringSubmatch(t.text)
	if pm == nil {
		return "", false, "", false
	}

	return options, hasOptions, pm[1], true
}

func (e *Extractor) parseSizes(options string, hasOptions bool) (ir.Sizes, error) {
	raw := map[string]float64{}
	if hasOptions {
		props, err := directive.Parse(options)
		if err != nil {
			return nil, err
		}
		raw, err = props.Floats("size")
		if err != nil {
			return nil, err
		}
	}

	sizes := ir.Sizes(directive.ResolveAliases(raw, e.opts.ViewportAliases))
	if _, ok := sizes[ir.DefaultViewport]; !ok {
		sizes[ir.DefaultViewport] = e.opts.DefaultSize
	}
	for vp, size := range sizes {
		if size < ir.MinSize {
			sizes[vp] = ir.MinSize
		}
	}
	return sizes, nil
}

// parseArtDirection returns nil when the tag has neither art-direction attribute.
func (e *Extractor) parseArtDirection(text, dir, imagePath string) (*ir.InlineArtDirection, error) {
	adm := artDirectionAttr.FindStringSubmatchIndex(text)
	igm := adIgnoreAttr.FindStringSubmatchIndex(text)
	if adm == nil && igm == nil {
		return nil, nil
	}

	ad := &ir.InlineArtDirection{Transformations: map[string]ir.Transformation{}}

	if adm != nil && adm[2] >= 0 && adm[3] > adm[2] {
		transformations, err := e.decodeTransformations(text[adm[2]:adm[3]], dir, imagePath)
		if err != nil {
			return nil, err
		}
		ad.Transformations = transformations
	}

	if igm != nil {
		if igm[2] >= 0 && igm[3] > igm[2] {
			ad.Ignore.Keys = strings.Split(text[igm[2]:igm[3]], "|")
		} else {
			ad.Ignore.All = true
		}
	}

	return ad, nil
}

// decodeTransformations turns ratio/path properties into per-viewport
// transformations. A path wins over a ratio for the same viewport.
func (e *Extractor) decodeTransformations(encoded, dir, imagePath string) (map[string]ir.Transformation, error) {
	props, err := directive.Parse(encoded)
	if err != nil {
		return nil, err
	}

	for _, name := range props.Names() {
		if name != "ratio" && name != "path" {
			return nil, apperrors.Newf(apperrors.KindMalformedDirective, "markup.decodeTransformations",
				"unknown art-direction property %q for image %s, expected ratio or path", name, imagePath)
		}
	}

	transformations := make(map[string]ir.Transformation)
	for vp, ratio := range props["ratio"] {
		transformations[vp] = ir.Transformation{Ratio: ratio}
	}
	for vp, p := range props["path"] {
		transformations[vp] = ir.Transformation{Path: e.opts.Resolver.Resolve(dir, p)}
	}
	return transformations, nil
}

func replacement(t tag, resolved string) string {
	if t.kind == kindImg {
		return ir.Placeholder(resolved)
	}
	// Background containers are kept and the picture is inserted as their first child.
	head := strings.TrimRight(strings.TrimSuffix(t.text, ">"), " \t\r\n")
	head = strings.TrimRight(strings.TrimSuffix(head, "/"), " \t\r\n")
	return head + " " + BackgroundMarker + ">\n" + ir.Placeholder(resolved) + "\n"
}

// backgroundLoader is the hidden element the runtime handler reads the
// selected source from.
func backgroundLoader(imagePath string) string {
	return `<img src="` + imagePath + `" style="display:none" class="responsive-bg-holder" ` +
		`onload="typeof responsiveBgImageHandler !== 'undefined' && responsiveBgImageHandler(event)"/>`
}
