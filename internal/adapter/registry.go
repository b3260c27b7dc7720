package adapter

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roboco-io/picturize/internal/adapter/imaging"
	"github.com/roboco-io/picturize/internal/adapter/thumbor"
	"github.com/roboco-io/picturize/internal/config"
	apperrors "github.com/roboco-io/picturize/internal/errors"
)

// Stage identifies a pipeline stage an adapter can serve.
type Stage string

const (
	StageTransform Stage = "transform"
	StageResize    Stage = "resize"
	StageConvert   Stage = "convert"
)

// Options are passed to preset constructors.
type Options struct {
	Quality        int
	ThumborURL     string
	ThumborTimeout time.Duration
}

// Preset is a named built-in adapter.
type Preset struct {
	Name        string
	Description string
	Stages      []Stage
	New         func(opts Options) (any, error)
}

// Serves reports whether the preset can be used for stage.
func (p Preset) Serves(stage Stage) bool {
	for _, s := range p.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Registry manages adapter presets.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		presets: make(map[string]Preset),
	}
}

// Register adds a preset to the registry.
func (r *Registry) Register(p Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if p.New == nil {
		return fmt.Errorf("preset %s has no constructor", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[p.Name]; exists {
		return fmt.Errorf("preset already registered: %s", p.Name)
	}

	r.presets[p.Name] = p
	return nil
}

// Get returns a preset by name.
func (r *Registry) Get(name string) (Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset not found: %s", name)
	}
	return p, nil
}

// List returns all presets sorted by name.
func (r *Registry) List() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	presets := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets
}

// Resolve builds the adapter set described by cfg. Each distinct preset is
// constructed once and shared between the stages naming it.
func (r *Registry) Resolve(cfg *config.Config, opts Options) (Set, error) {
	built := make(map[string]any)
	build := func(name *string, stage Stage) (any, error) {
		if name == nil {
			return nil, nil
		}
		p, err := r.Get(*name)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, "adapter.Resolve", "unknown adapter", err)
		}
		if !p.Serves(stage) {
			return nil, apperrors.Newf(apperrors.KindConfig, "adapter.Resolve",
				"adapter %s cannot be used to %s images", p.Name, stage)
		}
		if a, ok := built[p.Name]; ok {
			return a, nil
		}
		a, err := p.New(opts)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, "adapter.Resolve", "failed to create adapter "+p.Name, err)
		}
		built[p.Name] = a
		return a, nil
	}

	var set Set

	t, err := build(cfg.ArtDirection.Transformer, StageTransform)
	if err != nil {
		return Set{}, err
	}
	if t != nil {
		set.Transformer = t.(Transformer)
	}

	rs, err := build(cfg.ResolutionSwitching.Resizer, StageResize)
	if err != nil {
		return Set{}, err
	}
	if rs != nil {
		set.Resizer = rs.(Resizer)
	}

	c, err := build(cfg.Conversion.Converter, StageConvert)
	if err != nil {
		return Set{}, err
	}
	if c != nil {
		set.Converter = c.(Converter)
	}

	return set, nil
}

// DefaultRegistry holds the built-in presets.
var DefaultRegistry = builtins()

func builtins() *Registry {
	r := NewRegistry()
	_ = r.Register(Preset{
		Name:        config.PresetImaging,
		Description: "in-process crop, resize and re-encode (disintegration/imaging, gen2brain/webp)",
		Stages:      []Stage{StageTransform, StageResize, StageConvert},
		New: func(opts Options) (any, error) {
			return imaging.New(opts.Quality), nil
		},
	})
	_ = r.Register(Preset{
		Name:        config.PresetThumbor,
		Description: "smart crops from a Thumbor server",
		Stages:      []Stage{StageTransform},
		New: func(opts Options) (any, error) {
			return thumbor.New(thumbor.Options{URL: opts.ThumborURL, Timeout: opts.ThumborTimeout})
		},
	})
	return r
}

// FromConfig resolves cfg against the built-in presets.
func FromConfig(cfg *config.Config, opts Options) (Set, error) {
	return DefaultRegistry.Resolve(cfg, opts)
}
