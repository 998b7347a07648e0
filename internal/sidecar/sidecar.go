// Package sidecar persists the metadata record written next to every short.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shortsmith/internal/overlay"
)

// Result describes one finished composition. It is written once and never
// modified afterwards.
type Result struct {
	OutputPath       string        `json:"output_path"`
	Duration         float64       `json:"duration"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	FPS              int           `json:"fps"`
	AudioSource      string        `json:"audio_source"`
	BackgroundSource string        `json:"background_source"`
	BackgroundOffset float64       `json:"background_offset"`
	BackgroundPlays  int           `json:"background_plays"`
	MusicSource      string        `json:"music_source,omitempty"`
	CaptionCount     int           `json:"caption_count"`
	Transcriber      string        `json:"transcriber"`
	Style            overlay.Style `json:"style"`
	Brightness       float64       `json:"brightness"`
	Saturation       float64       `json:"saturation"`
	Title            string        `json:"title,omitempty"`
	Seed             uint64        `json:"seed"`
	ConfigHash       string        `json:"config_hash,omitempty"`
	RunID            string        `json:"run_id"`
	Timestamp        time.Time     `json:"timestamp"`
}

// ErrExists is returned by Save when a record is already present at path.
var ErrExists = errors.New("sidecar already exists")

// Load reads the record stored at path.
func Load(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read sidecar: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	return res, nil
}

// Save writes the record atomically. An existing record is replaced only when
// overwrite is set.
func (r Result) Save(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
