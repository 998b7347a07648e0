package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvBackgroundDir = "SHORTSMITH_BACKGROUND_DIR"
	EnvMusicDir      = "SHORTSMITH_MUSIC_DIR"
	EnvOutputDir     = "SHORTSMITH_OUTPUT_DIR"
	EnvRandomize     = "SHORTSMITH_RANDOMIZE"
	EnvCaptionEngine = "SHORTSMITH_CAPTION_ENGINE"
	EnvWhisperModel  = "SHORTSMITH_WHISPERX_MODEL"
	EnvMusicGain     = "SHORTSMITH_MUSIC_GAIN"
	EnvHFToken       = "HF_TOKEN"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone and a missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// ApplyEnv overlays SHORTSMITH_* variables onto the configuration.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v := getEnv(lookup, EnvBackgroundDir, ""); v != "" {
		c.Assets.BackgroundDir = v
	}
	if v := getEnv(lookup, EnvMusicDir, ""); v != "" {
		c.Assets.MusicDir = v
	}
	if v := getEnv(lookup, EnvOutputDir, ""); v != "" {
		c.Output.Dir = v
	}
	if v, ok := getEnvAsBool(lookup, EnvRandomize); ok {
		c.SetRandomize(v)
	}
	if v := getEnv(lookup, EnvCaptionEngine, ""); v != "" {
		c.Captions.Engine = strings.ToLower(v)
	}
	if v := getEnv(lookup, EnvWhisperModel, ""); v != "" {
		c.Captions.Model = v
	}
	c.Audio.MusicGain = getEnvAsFloat(lookup, EnvMusicGain, c.Audio.MusicGain)
	if v := getEnv(lookup, EnvHFToken, ""); v != "" {
		c.Captions.HFToken = v
	}
}

func getEnv(lookup func(string) (string, bool), key, defaultValue string) string {
	value, ok := lookup(key)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(lookup func(string) (string, bool), key string, defaultValue float64) float64 {
	valueStr := getEnv(lookup, key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(lookup func(string) (string, bool), key string) (bool, bool) {
	valueStr := getEnv(lookup, key, "")
	if valueStr == "" {
		return false, false
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, false
	}
	return value, true
}
