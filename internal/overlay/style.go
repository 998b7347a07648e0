package overlay

import (
	"math/rand/v2"

	"shortsmith/internal/config"
)

// Style is the caption look shared by every overlay of one composition.
type Style struct {
	Font         string `json:"font"`
	FontFile     string `json:"font_file,omitempty"`
	Color        string `json:"color"`
	Size         int    `json:"size"`
	OutlineColor string `json:"outline_color"`
	OutlineWidth int    `json:"outline_width"`
}

// StylePicker chooses a Style from the configured sets.
type StylePicker struct {
	Config config.StyleConfig
}

// Default is the fixed, non-randomized style.
func (p StylePicker) Default() Style {
	cfg := p.Config
	font := fallback(cfg.DefaultFont, "Arial")
	return Style{
		Font:         font,
		FontFile:     cfg.FontFiles[font],
		Color:        fallback(cfg.DefaultColor, "yellow"),
		Size:         max(p.baseSize(), p.minSize()),
		OutlineColor: fallback(cfg.OutlineColor, "black"),
		OutlineWidth: cfg.OutlineWidthValue(),
	}
}

// Pick returns the default style, or when randomize is set a font and color
// drawn uniformly from the configured sets and a size of base +/- jitter,
// never below the configured minimum.
func (p StylePicker) Pick(rng *rand.Rand, randomize bool) Style {
	style := p.Default()
	if !randomize {
		return style
	}
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	cfg := p.Config
	if len(cfg.Fonts) > 0 {
		style.Font = cfg.Fonts[intN(len(cfg.Fonts))]
		style.FontFile = cfg.FontFiles[style.Font]
	}
	if len(cfg.Colors) > 0 {
		style.Color = cfg.Colors[intN(len(cfg.Colors))]
	}
	size := p.baseSize()
	if jitter := cfg.SizeJitter; jitter > 0 {
		size += intN(2*jitter+1) - jitter
	}
	style.Size = max(size, p.minSize())
	return style
}

func (p StylePicker) baseSize() int {
	if p.Config.BaseSize > 0 {
		return p.Config.BaseSize
	}
	return 60
}

func (p StylePicker) minSize() int {
	if p.Config.MinSize > 0 {
		return p.Config.MinSize
	}
	return 30
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
