// Package config manages the build configuration.
package config

import (
	"fmt"

	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
	"gopkg.in/yaml.v3"
)

// Adapter preset names accepted in the configuration.
const (
	PresetImaging = "imaging"
	PresetThumbor = "thumbor"
)

// Config represents the build configuration.
type Config struct {
	DefaultSize         float64                   `yaml:"defaultSize" validate:"gt=0"`
	ViewportAliases     map[string]string         `yaml:"viewportAliases"`
	Paths               PathsConfig               `yaml:"paths"`
	Conversion          ConversionConfig          `yaml:"conversion"`
	ArtDirection        ArtDirectionConfig        `yaml:"artDirection"`
	ResolutionSwitching ResolutionSwitchingConfig `yaml:"resolutionSwitching"`
}

// PathsConfig controls where generated files are published and how image
// paths in markup are resolved.
type PathsConfig struct {
	OutputDir string      `yaml:"outputDir" validate:"required"`
	Aliases   PathAliases `yaml:"aliases"`
}

// ConversionConfig configures the format conversion stage.
type ConversionConfig struct {
	Converter      *string        `yaml:"converter" validate:"omitempty,oneof=imaging"`
	EnabledFormats EnabledFormats `yaml:"enabledFormats"`
}

// EnabledFormats toggles output formats.
type EnabledFormats struct {
	WebP bool `yaml:"webp"`
	JPG  bool `yaml:"jpg"`
}

// Formats returns the enabled formats in preference order.
func (e EnabledFormats) Formats() []format.Format {
	var formats []format.Format
	for _, f := range format.PreferredOrder {
		switch {
		case f == format.FormatWebP && e.WebP, f == format.FormatJPEG && e.JPG:
			formats = append(formats, f)
		}
	}
	return formats
}

// ArtDirectionConfig configures the art-direction stage.
type ArtDirectionConfig struct {
	Transformer            *string                      `yaml:"transformer" validate:"omitempty,oneof=imaging thumbor"`
	DefaultRatio           string                       `yaml:"defaultRatio" validate:"required,ratio"`
	DefaultTransformations map[string]ir.Transformation `yaml:"defaultTransformations"`
}

// ResolutionSwitchingConfig configures breakpoint allocation.
type ResolutionSwitchingConfig struct {
	Resizer             *string `yaml:"resizer" validate:"omitempty,oneof=imaging"`
	SupportRetina       bool    `yaml:"supportRetina"`
	MinViewport         int     `yaml:"minViewport" validate:"gt=0"`
	MaxViewport         int     `yaml:"maxViewport" validate:"gtfield=MinViewport"`
	MaxBreakpointsCount int     `yaml:"maxBreakpointsCount" validate:"gte=0"`
	MinSizeDifference   float64 `yaml:"minSizeDifference" validate:"gte=0"`
}

// PathAlias maps a path prefix used in markup to a directory.
type PathAlias struct {
	Prefix string
	Target string
}

// PathAliases keeps aliases in declaration order; the first matching prefix wins.
type PathAliases []PathAlias

// UnmarshalYAML decodes a mapping while preserving key order.
func (a *PathAliases) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: paths.aliases must be a mapping of prefix to directory", node.Line)
	}

	aliases := make(PathAliases, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: alias %q must map to a string", value.Line, key.Value)
		}
		aliases = append(aliases, PathAlias{Prefix: key.Value, Target: value.Value})
	}
	*a = aliases
	return nil
}

// MarshalYAML encodes the aliases as an ordered mapping.
func (a PathAliases) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, alias := range a {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: alias.Prefix},
			&yaml.Node{Kind: yaml.ScalarNode, Value: alias.Target},
		)
	}
	return node, nil
}

// Preset returns a pointer to name, for use in adapter fields.
func Preset(name string) *string {
	return &name
}

// AdapterName renders an adapter field for display.
func AdapterName(p *string) string {
	if p == nil {
		return "disabled"
	}
	return *p
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultSize:     1.0,
		ViewportAliases: map[string]string{},
		Paths: PathsConfig{
			OutputDir: "/",
		},
		Conversion: ConversionConfig{
			Converter: Preset(PresetImaging),
			EnabledFormats: EnabledFormats{
				WebP: true,
				JPG:  true,
			},
		},
		ArtDirection: ArtDirectionConfig{
			Transformer:            nil,
			DefaultRatio:           ir.RatioOriginal,
			DefaultTransformations: map[string]ir.Transformation{},
		},
		ResolutionSwitching: ResolutionSwitchingConfig{
			Resizer:             Preset(PresetImaging),
			SupportRetina:       true,
			MinViewport:         200,
			MaxViewport:         3840,
			MaxBreakpointsCount: 5,
			MinSizeDifference:   35,
		},
	}
}
