// Package enhance replaces image placeholders with <picture> elements.
package enhance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roboco-io/picturize/internal/ir"
)

var (
	classAttr        = regexp.MustCompile(`\sclass="([^"]*)"`)
	imgClassAttr     = regexp.MustCompile(`\sresponsive-img-class(?:="([^"]*)")?`)
	pictureClassAttr = regexp.MustCompile(`\sresponsive-picture-class(?:="([^"]*)")?`)
)

// Enhance replaces the placeholder of every image in markup.
// Images without sources get their original tag back.
func Enhance(markup string, images []*ir.ResponsiveImage) (string, error) {
	for _, img := range images {
		replacement := img.Fallback
		if img.HasSources() {
			picture, err := Picture(img)
			if err != nil {
				return "", fmt.Errorf("image %s: %w", img.OriginalPath, err)
			}
			replacement = picture
		}
		markup = strings.Replace(markup, ir.Placeholder(img.OriginalPath), replacement, 1)
	}
	return markup, nil
}

// Picture renders the <picture> element of img. The sources of img are sorted
// in place.
func Picture(img *ir.ResponsiveImage) (string, error) {
	imgClass, pictureClass := classes(img.Fallback)

	ByIncreasingMaxViewport(img.Sources)
	ByMostEfficientFormat(img.Sources)

	var b strings.Builder
	b.WriteString(`<picture class="` + pictureClass + `">` + "\n")

	for _, src := range img.Sources {
		mimeType, err := src.Format.MIMEType()
		if err != nil {
			return "", err
		}

		b.WriteString(`<source type="` + mimeType + `" `)
		if src.HasViewport() {
			b.WriteString(`sizes="` + sizesValue(src.Size) + `" `)
			b.WriteString(`media="(max-width: ` + strconv.Itoa(src.MaxViewport) + `px)" `)
		}
		b.WriteString(`srcset="` + srcset(src.Breakpoints) + `" />` + "\n")
	}

	b.WriteString(replaceClass(img.Fallback, imgClass) + "\n")
	b.WriteString("</picture>\n")
	return b.String(), nil
}

// classes computes the <img> and <picture> classes. Each inherits the tag's
// class unless its own attribute is present, even when empty.
func classes(tag string) (imgClass, pictureClass string) {
	original := ""
	if m := classAttr.FindStringSubmatch(tag); m != nil {
		original = m[1]
	}

	imgClass, pictureClass = original, original
	if m := imgClassAttr.FindStringSubmatch(tag); m != nil {
		imgClass = m[1]
	}
	if m := pictureClassAttr.FindStringSubmatch(tag); m != nil {
		pictureClass = m[1]
	}
	return imgClass, pictureClass
}

// replaceClass rewrites the first class attribute of tag, if any.
func replaceClass(tag, class string) string {
	loc := classAttr.FindStringIndex(tag)
	if loc == nil {
		return tag
	}
	return tag[:loc[0]] + ` class="` + class + `"` + tag[loc[1]:]
}

func sizesValue(size float64) string {
	if size > 1.0 {
		return strconv.FormatFloat(size, 'f', -1, 64) + "px"
	}
	return ir.FormatSize(size) + "vw"
}

func srcset(breakpoints []ir.Breakpoint) string {
	if len(breakpoints) == 1 {
		return ir.URLPlaceholder(breakpoints[0].URI)
	}

	sorted := make([]ir.Breakpoint, len(breakpoints))
	copy(sorted, breakpoints)
	byIncreasingWidth(sorted)

	entries := make([]string, len(sorted))
	for i, bp := range sorted {
		entries[i] = ir.URLPlaceholder(bp.URI) + " " + strconv.Itoa(bp.Width) + "w"
	}
	return strings.Join(entries, ", ")
}
