package config

import (
	"os"
	"path/filepath"
	"testing"
)

func errorsOf(results []ValidationResult) []ValidationResult {
	var errs []ValidationResult
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, r)
		}
	}
	return errs
}

func TestValidate_DefaultsAreClean(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "backgrounds"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "music"), 0o755); err != nil {
		t.Fatal(err)
	}

	results := Default().Validate(dir)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestValidate_MissingDirsWarnOnly(t *testing.T) {
	results := Default().Validate(t.TempDir())
	if HasErrors(results) {
		t.Fatalf("expected warnings only, got %v", results)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 warnings, got %v", results)
	}
}

func TestValidate_VideoAspect(t *testing.T) {
	cfg := Default()
	cfg.Video.Width = 1920
	cfg.Video.Height = 1080

	errs := errorsOf(cfg.validateVideo())
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
}

func TestValidate_MusicGainBounds(t *testing.T) {
	for _, gain := range []float64{0, 1, 1.5, -0.1} {
		cfg := Default()
		cfg.Audio.MusicGain = gain
		if errs := errorsOf(cfg.validateAudio()); len(errs) != 1 {
			t.Fatalf("gain %v: expected 1 error, got %v", gain, errs)
		}
	}
}

func TestValidate_CaptionEnums(t *testing.T) {
	cfg := Default()
	cfg.Captions.Engine = "vosk"
	cfg.Captions.Granularity = "line"
	cfg.Captions.Transform = "shout"

	errs := errorsOf(cfg.validateCaptions())
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidate_StyleSizes(t *testing.T) {
	cfg := Default()
	cfg.Style.BaseSize = 20
	cfg.Style.SizeJitter = -1

	errs := errorsOf(cfg.validateStyle())
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidate_BrightnessJitterCapped(t *testing.T) {
	cfg := Default()
	cfg.Randomization.BrightnessJitter = 0.2
	if errs := errorsOf(cfg.validateRandomization()); len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}
