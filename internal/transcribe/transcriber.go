// Package transcribe turns narration audio into timed text segments.
package transcribe

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"shortsmith/internal/config"
	"shortsmith/internal/runner"
)

// ErrTranscriptionUnavailable is returned when no transcription capability
// exists or the transcriber failed.
var ErrTranscriptionUnavailable = errors.New("transcription unavailable")

// Word is a single word with timing.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a transcribed span of speech.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Transcriber produces timed segments for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
	Name() string
}

// Null is the transcriber used when no engine is available.
type Null struct {
	Reason string
}

// Transcribe always fails with ErrTranscriptionUnavailable.
func (Null) Transcribe(context.Context, string) ([]Segment, error) {
	return nil, ErrTranscriptionUnavailable
}

// Name implements Transcriber.
func (Null) Name() string { return "none" }

// Options configures New.
type Options struct {
	Captions config.CaptionsConfig
	UVX      string
	WorkDir  string
	Runner   runner.Runner
	// LookPath resolves binaries; exec.LookPath when nil.
	LookPath func(string) (string, error)
}

// New picks the transcriber once, at construction: WhisperX when it is the
// configured engine and uvx resolves, otherwise Null.
func New(opts Options) Transcriber {
	engine := strings.ToLower(strings.TrimSpace(opts.Captions.Engine))
	if engine != config.EngineWhisperX {
		return Null{Reason: "captions engine disabled"}
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	uvx := opts.UVX
	if uvx == "" {
		uvx = UVXCommand
	}
	resolved, err := lookPath(uvx)
	if err != nil {
		return Null{Reason: "uvx not found: " + err.Error()}
	}
	return &WhisperX{
		Runner:      opts.Runner,
		UVX:         resolved,
		Model:       opts.Captions.Model,
		Device:      opts.Captions.Device,
		ComputeType: opts.Captions.ComputeType,
		Language:    opts.Captions.Language,
		HFToken:     opts.Captions.HFToken,
		WorkDir:     opts.WorkDir,
	}
}
