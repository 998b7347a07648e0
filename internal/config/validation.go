package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate runs every check against the config and returns structured
// results. Relative asset directories are resolved against projectRoot.
func (c Config) Validate(projectRoot string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateVideo()...)
	results = append(results, c.validateAudio()...)
	results = append(results, c.validateAssets(projectRoot)...)
	results = append(results, c.validateCaptions()...)
	results = append(results, c.validateStyle()...)
	results = append(results, c.validateRandomization()...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateVideo() []ValidationResult {
	var results []ValidationResult
	v := c.Video
	if v.Width <= 0 || v.Height <= 0 {
		results = append(results, errorf("video dimensions must be positive, got %dx%d", v.Width, v.Height))
	} else if v.Width*16 != v.Height*9 {
		results = append(results, errorf("video %dx%d is not 9:16", v.Width, v.Height))
	}
	if v.FPS <= 0 {
		results = append(results, errorf("video fps must be positive, got %d", v.FPS))
	}
	if v.MaxDurationSeconds <= 0 {
		results = append(results, errorf("video max_duration_s must be positive"))
	} else if v.MaxDurationSeconds > 60 {
		results = append(results, warnf("video max_duration_s %.0f exceeds the 60s short-form limit", v.MaxDurationSeconds))
	}
	if v.CRF < 0 || v.CRF > 51 {
		results = append(results, errorf("video crf must be within 0-51, got %d", v.CRF))
	}
	return results
}

func (c Config) validateAudio() []ValidationResult {
	var results []ValidationResult
	if c.Audio.MusicGain <= 0 || c.Audio.MusicGain >= 1 {
		results = append(results, errorf("audio music_gain must be within (0,1), got %g", c.Audio.MusicGain))
	}
	if c.Audio.BitrateKbps < 0 {
		results = append(results, errorf("audio bitrate_kbps must not be negative"))
	}
	return results
}

func (c Config) validateAssets(projectRoot string) []ValidationResult {
	var results []ValidationResult
	bg := strings.TrimSpace(c.Assets.BackgroundDir)
	if bg == "" {
		results = append(results, errorf("assets background_dir is required"))
	} else if !dirExists(resolvePath(projectRoot, bg)) {
		results = append(results, warnf("background directory %q not found", bg))
	}
	if music := strings.TrimSpace(c.Assets.MusicDir); music != "" && !dirExists(resolvePath(projectRoot, music)) {
		results = append(results, warnf("music directory %q not found; compositions will be narration only", music))
	}
	return results
}

func (c Config) validateCaptions() []ValidationResult {
	var results []ValidationResult
	switch strings.ToLower(c.Captions.Engine) {
	case EngineWhisperX, EngineNone:
	default:
		results = append(results, errorf("captions engine %q is not one of %s, %s", c.Captions.Engine, EngineWhisperX, EngineNone))
	}
	switch strings.ToLower(c.Captions.Granularity) {
	case GranularitySegment, GranularityWord:
	default:
		results = append(results, errorf("captions granularity %q is not one of %s, %s", c.Captions.Granularity, GranularitySegment, GranularityWord))
	}
	switch strings.ToLower(c.Captions.Transform) {
	case "", "none", "upper", "lower", "title":
	default:
		results = append(results, errorf("captions transform %q is not one of none, upper, lower, title", c.Captions.Transform))
	}
	if c.Captions.BoxWidth <= 0 || c.Captions.BoxWidth > c.Video.Width {
		results = append(results, warnf("captions box_width_px %d does not fit the %dpx frame", c.Captions.BoxWidth, c.Video.Width))
	}
	return results
}

func (c Config) validateStyle() []ValidationResult {
	var results []ValidationResult
	s := c.Style
	if s.MinSize <= 0 {
		results = append(results, errorf("style min_size must be positive"))
	}
	if s.BaseSize < s.MinSize {
		results = append(results, errorf("style base_size %d is below min_size %d", s.BaseSize, s.MinSize))
	}
	if s.SizeJitter < 0 {
		results = append(results, errorf("style size_jitter must not be negative"))
	}
	if s.OutlineWidthValue() < 0 {
		results = append(results, errorf("style outline_width must not be negative"))
	}
	for font, file := range s.FontFiles {
		if _, err := os.Stat(file); err != nil {
			results = append(results, warnf("font file for %q not found at %s", font, file))
		}
	}
	return results
}

func (c Config) validateRandomization() []ValidationResult {
	var results []ValidationResult
	r := c.Randomization
	if r.BrightnessJitter < 0 || r.BrightnessJitter > 0.05 {
		results = append(results, errorf("randomization brightness_jitter must be within 0-0.05, got %g", r.BrightnessJitter))
	}
	if r.SaturationJitter < 0 || r.SaturationJitter > 0.5 {
		results = append(results, errorf("randomization saturation_jitter must be within 0-0.5, got %g", r.SaturationJitter))
	}
	return results
}

func errorf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "error", Message: fmt.Sprintf(format, args...)}
}

func warnf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "warning", Message: fmt.Sprintf(format, args...)}
}

func resolvePath(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
