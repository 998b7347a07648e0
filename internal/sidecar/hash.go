package sidecar

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"shortsmith/internal/config"
)

// renderInput is the canonical structure hashed for ConfigHash. Secrets and
// paths are left out so the same settings hash the same on any machine.
type renderInput struct {
	Video         config.VideoConfig         `json:"video"`
	Audio         config.AudioConfig         `json:"audio"`
	Granularity   string                     `json:"granularity"`
	Placeholder   string                     `json:"placeholder"`
	Transform     string                     `json:"transform"`
	BoxWidth      int                        `json:"box_width"`
	Fonts         []string                   `json:"fonts"`
	Colors        []string                   `json:"colors"`
	DefaultFont   string                     `json:"default_font"`
	DefaultColor  string                     `json:"default_color"`
	BaseSize      int                        `json:"base_size"`
	SizeJitter    int                        `json:"size_jitter"`
	MinSize       int                        `json:"min_size"`
	OutlineColor  string                     `json:"outline_color"`
	OutlineWidth  int                        `json:"outline_width"`
	Randomization config.RandomizationConfig `json:"randomization"`
}

// ConfigHash returns a deterministic hash of the settings that shape the
// rendered short, so records made under different settings can be told apart.
func ConfigHash(cfg config.Config) string {
	return hashJSON(renderInput{
		Video:         cfg.Video,
		Audio:         cfg.Audio,
		Granularity:   cfg.Captions.Granularity,
		Placeholder:   cfg.Captions.Placeholder,
		Transform:     cfg.Captions.Transform,
		BoxWidth:      cfg.Captions.BoxWidth,
		Fonts:         cfg.Style.Fonts,
		Colors:        cfg.Style.Colors,
		DefaultFont:   cfg.Style.DefaultFont,
		DefaultColor:  cfg.Style.DefaultColor,
		BaseSize:      cfg.Style.BaseSize,
		SizeJitter:    cfg.Style.SizeJitter,
		MinSize:       cfg.Style.MinSize,
		OutlineColor:  cfg.Style.OutlineColor,
		OutlineWidth:  cfg.Style.OutlineWidthValue(),
		Randomization: cfg.Randomization,
	})
}

func hashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("sha256:error-%v", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}
