package ir

// ResponsiveImage is one image-bearing tag found in a document.
type ResponsiveImage struct {
	OriginalPath string              `json:"original_path"`
	Fallback     string              `json:"fallback"` // markup kept as the trailing <img> of the picture
	Sizes        Sizes               `json:"sizes"`
	ArtDirection *InlineArtDirection `json:"art_direction,omitempty"`
	Sources      []*Source           `json:"sources"`
}

// NewResponsiveImage creates an image with no sources.
func NewResponsiveImage(path, fallback string, sizes Sizes) *ResponsiveImage {
	return &ResponsiveImage{
		OriginalPath: path,
		Fallback:     fallback,
		Sizes:        sizes,
		Sources:      make([]*Source, 0),
	}
}

// HasSources returns true if any stage produced a source.
func (img *ResponsiveImage) HasSources() bool {
	return len(img.Sources) > 0
}

// Transformation is an art-direction directive for one viewport: either a
// target ratio or a replacement image path.
type Transformation struct {
	Ratio string `yaml:"ratio,omitempty" json:"ratio,omitempty"`
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
}

// IsCustom returns true if the directive replaces the image instead of cropping it.
func (t Transformation) IsCustom() bool {
	return t.Path != ""
}

// IgnoreSpec selects which default transformations an image drops.
// The zero value keeps every default.
type IgnoreSpec struct {
	All  bool     `json:"all,omitempty"`
	Keys []string `json:"keys,omitempty"`
}

// InlineArtDirection holds the art-direction attributes of a single tag.
type InlineArtDirection struct {
	Transformations map[string]Transformation `json:"transformations"`
	Ignore          IgnoreSpec                `json:"ignore"`
}
