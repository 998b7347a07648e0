package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the composition settings for a project.
type Config struct {
	Version       int                 `yaml:"version"`
	Video         VideoConfig         `yaml:"video"`
	Audio         AudioConfig         `yaml:"audio"`
	Assets        AssetsConfig        `yaml:"assets"`
	Output        OutputConfig        `yaml:"output"`
	Captions      CaptionsConfig      `yaml:"captions"`
	Style         StyleConfig         `yaml:"style"`
	Randomization RandomizationConfig `yaml:"randomization"`
	Tools         ToolsConfig         `yaml:"tools,omitempty"`
}

// VideoConfig contains output geometry, framerate and encoder settings.
type VideoConfig struct {
	Width              int     `yaml:"width"`
	Height             int     `yaml:"height"`
	FPS                int     `yaml:"fps"`
	MaxDurationSeconds float64 `yaml:"max_duration_s"`
	Codec              string  `yaml:"codec"`
	Preset             string  `yaml:"preset"`
	CRF                int     `yaml:"crf"`
}

// AudioConfig describes audio encoding and mixing parameters.
type AudioConfig struct {
	ACodec      string  `yaml:"acodec"`
	BitrateKbps int     `yaml:"bitrate_kbps"`
	SampleRate  int     `yaml:"sample_rate"`
	Channels    int     `yaml:"channels"`
	MusicGain   float64 `yaml:"music_gain"`
}

// AssetsConfig locates the background clip pool and the optional music pool.
type AssetsConfig struct {
	BackgroundDir  string   `yaml:"background_dir"`
	BackgroundExts []string `yaml:"background_exts,omitempty"`
	MusicDir       string   `yaml:"music_dir,omitempty"`
	MusicExts      []string `yaml:"music_exts,omitempty"`
}

// OutputConfig controls where finished shorts land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// NameTemplate names outputs when --output is not given, e.g.
	// "$DATE_$SAFE_AUDIO". Empty keeps the narration's base name.
	NameTemplate string `yaml:"name_template,omitempty"`
	History      *bool  `yaml:"history,omitempty"`
}

// CaptionsConfig selects the transcriber and how its output becomes captions.
type CaptionsConfig struct {
	Engine      string `yaml:"engine"`
	Model       string `yaml:"model"`
	Device      string `yaml:"device"`
	ComputeType string `yaml:"compute_type"`
	Language    string `yaml:"language,omitempty"`
	Granularity string `yaml:"granularity"`
	Placeholder string `yaml:"placeholder"`
	Transform   string `yaml:"transform,omitempty"`
	BoxWidth    int    `yaml:"box_width_px"`
	HFToken     string `yaml:"-"`
}

// StyleConfig lists the caption looks a composition may draw from.
type StyleConfig struct {
	DefaultFont  string            `yaml:"default_font"`
	DefaultColor string            `yaml:"default_color"`
	Fonts        []string          `yaml:"fonts"`
	FontFiles    map[string]string `yaml:"font_files,omitempty"`
	Colors       []string          `yaml:"colors"`
	BaseSize     int               `yaml:"base_size"`
	SizeJitter   int               `yaml:"size_jitter"`
	MinSize      int               `yaml:"min_size"`
	OutlineColor string            `yaml:"outline_color"`
	OutlineWidth *int              `yaml:"outline_width,omitempty"`
}

// RandomizationConfig toggles per-composition variation.
type RandomizationConfig struct {
	Enabled          *bool   `yaml:"enabled,omitempty"`
	BrightnessJitter float64 `yaml:"brightness_jitter"`
	SaturationJitter float64 `yaml:"saturation_jitter"`
}

// ToolsConfig overrides binary locations.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg,omitempty"`
	FFprobe string `yaml:"ffprobe,omitempty"`
	UVX     string `yaml:"uvx,omitempty"`
}

// Caption engine names.
const (
	EngineWhisperX = "whisperx"
	EngineNone     = "none"
)

// Caption granularities.
const (
	GranularitySegment = "segment"
	GranularityWord    = "word"
)

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Video: VideoConfig{
			Width:              1080,
			Height:             1920,
			FPS:                30,
			MaxDurationSeconds: 60,
			Codec:              "libx264",
			Preset:             "medium",
			CRF:                20,
		},
		Audio: AudioConfig{
			ACodec:      "aac",
			BitrateKbps: 192,
			SampleRate:  48000,
			Channels:    2,
			MusicGain:   0.12,
		},
		Assets: AssetsConfig{
			BackgroundDir:  "backgrounds",
			BackgroundExts: []string{".mp4", ".mov", ".mkv", ".webm", ".m4v"},
			MusicDir:       "music",
			MusicExts:      []string{".mp3", ".m4a", ".aac", ".wav", ".ogg", ".flac"},
		},
		Output: OutputConfig{
			Dir:     "shorts",
			History: boolPtr(true),
		},
		Captions: CaptionsConfig{
			Engine:      EngineWhisperX,
			Model:       "medium",
			Device:      "cpu",
			ComputeType: "float32",
			Granularity: GranularitySegment,
			Placeholder: "...",
			Transform:   "none",
			BoxWidth:    1000,
		},
		Style: StyleConfig{
			DefaultFont:  "Arial",
			DefaultColor: "yellow",
			Fonts:        []string{"Arial", "Verdana", "Impact"},
			Colors:       []string{"yellow", "white", "cyan", "magenta"},
			BaseSize:     60,
			SizeJitter:   10,
			MinSize:      30,
			OutlineColor: "black",
			OutlineWidth: intPtr(2),
		},
		Randomization: RandomizationConfig{
			Enabled:          boolPtr(true),
			BrightnessJitter: 0.05,
			SaturationJitter: 0.1,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Video.Width == 0 {
		c.Video.Width = defaults.Video.Width
	}
	if c.Video.Height == 0 {
		c.Video.Height = defaults.Video.Height
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaults.Video.FPS
	}
	if c.Video.MaxDurationSeconds == 0 {
		c.Video.MaxDurationSeconds = defaults.Video.MaxDurationSeconds
	}
	if c.Video.Codec == "" {
		c.Video.Codec = defaults.Video.Codec
	}
	if c.Audio.ACodec == "" {
		c.Audio.ACodec = defaults.Audio.ACodec
	}
	if c.Audio.BitrateKbps == 0 {
		c.Audio.BitrateKbps = defaults.Audio.BitrateKbps
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Audio.MusicGain == 0 {
		c.Audio.MusicGain = defaults.Audio.MusicGain
	}
	if len(c.Assets.BackgroundExts) == 0 {
		c.Assets.BackgroundExts = defaults.Assets.BackgroundExts
	}
	if len(c.Assets.MusicExts) == 0 {
		c.Assets.MusicExts = defaults.Assets.MusicExts
	}
	if c.Assets.BackgroundDir == "" {
		c.Assets.BackgroundDir = defaults.Assets.BackgroundDir
	}
	if c.Output.Dir == "" {
		c.Output.Dir = defaults.Output.Dir
	}
	if c.Output.History == nil {
		c.Output.History = boolPtr(true)
	}
	if c.Captions.Engine == "" {
		c.Captions.Engine = defaults.Captions.Engine
	}
	if c.Captions.Model == "" {
		c.Captions.Model = defaults.Captions.Model
	}
	if c.Captions.Device == "" {
		c.Captions.Device = defaults.Captions.Device
	}
	if c.Captions.ComputeType == "" {
		c.Captions.ComputeType = defaults.Captions.ComputeType
	}
	if c.Captions.Granularity == "" {
		c.Captions.Granularity = defaults.Captions.Granularity
	}
	if c.Captions.Placeholder == "" {
		c.Captions.Placeholder = defaults.Captions.Placeholder
	}
	if c.Captions.BoxWidth == 0 {
		c.Captions.BoxWidth = defaults.Captions.BoxWidth
	}
	if c.Style.DefaultFont == "" {
		c.Style.DefaultFont = defaults.Style.DefaultFont
	}
	if c.Style.DefaultColor == "" {
		c.Style.DefaultColor = defaults.Style.DefaultColor
	}
	if len(c.Style.Fonts) == 0 {
		c.Style.Fonts = defaults.Style.Fonts
	}
	if len(c.Style.Colors) == 0 {
		c.Style.Colors = defaults.Style.Colors
	}
	if c.Style.BaseSize == 0 {
		c.Style.BaseSize = defaults.Style.BaseSize
	}
	if c.Style.MinSize == 0 {
		c.Style.MinSize = defaults.Style.MinSize
	}
	if c.Style.OutlineColor == "" {
		c.Style.OutlineColor = defaults.Style.OutlineColor
	}
	if c.Style.OutlineWidth == nil {
		c.Style.OutlineWidth = intPtr(2)
	}
	if c.Randomization.Enabled == nil {
		c.Randomization.Enabled = boolPtr(true)
	}
}

// HistoryEnabled reports whether compositions are recorded in the history db.
func (c Config) HistoryEnabled() bool {
	if c.Output.History == nil {
		return true
	}
	return *c.Output.History
}

// RandomizeEnabled reports whether per-composition variation is on.
func (c Config) RandomizeEnabled() bool {
	if c.Randomization.Enabled == nil {
		return true
	}
	return *c.Randomization.Enabled
}

// OutlineWidthValue returns the caption outline width applying defaults.
func (s StyleConfig) OutlineWidthValue() int {
	if s.OutlineWidth == nil {
		return 2
	}
	return *s.OutlineWidth
}

// SetRandomize overrides the randomization toggle.
func (c *Config) SetRandomize(enabled bool) {
	c.Randomization.Enabled = boolPtr(enabled)
}

// FFmpegPath returns the configured ffmpeg binary or its bare name.
func (c Config) FFmpegPath() string {
	return fallback(c.Tools.FFmpeg, "ffmpeg")
}

// FFprobePath returns the configured ffprobe binary or its bare name.
func (c Config) FFprobePath() string {
	return fallback(c.Tools.FFprobe, "ffprobe")
}

// UVXPath returns the configured uvx binary or its bare name.
func (c Config) UVXPath() string {
	return fallback(c.Tools.UVX, "uvx")
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}
