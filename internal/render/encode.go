package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shortsmith/internal/config"
	"shortsmith/internal/runner"
)

// Encoder burns overlays onto a normalized clip and writes the final short.
type Encoder struct {
	Runner runner.Runner
	FFmpeg string
	Video  config.VideoConfig
	Audio  config.AudioConfig
	Logger *slog.Logger
	stderr io.Writer
}

// Job is one final encode.
type Job struct {
	Video    string
	Audio    string
	Filters  []string
	Duration float64
	// Output is the final location. The encode first writes Partial and
	// renames it into place only on success.
	Output  string
	Partial string
	LogPath string
}

// SetStderr mirrors ffmpeg's stderr to w in addition to the job log.
func (e *Encoder) SetStderr(w io.Writer) {
	if e == nil {
		return
	}
	e.stderr = w
}

// Encode runs ffmpeg for job. On failure the partial output is removed and no
// file is left at job.Output.
func (e *Encoder) Encode(ctx context.Context, job Job) error {
	if e == nil {
		return errors.New("encoder is nil")
	}
	if strings.TrimSpace(job.Output) == "" {
		return errors.New("output path is empty")
	}
	partial := strings.TrimSpace(job.Partial)
	if partial == "" {
		ext := filepath.Ext(job.Output)
		partial = strings.TrimSuffix(job.Output, ext) + ".partial" + ext
	}

	args, err := BuildEncodeArgs(job, partial, e.Video, e.Audio)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}

	runOpts := runner.RunOptions{Stderr: e.stderr}
	if job.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(job.LogPath), 0o755); err != nil {
			return fmt.Errorf("ensure log directory: %w", err)
		}
		logFile, err := os.Create(job.LogPath)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		runOpts.Stderr = logFile
		if e.stderr != nil {
			runOpts.Stderr = io.MultiWriter(logFile, e.stderr)
		}
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("encoding short", slog.String("output", filepath.Base(job.Output)), slog.Int("filters", len(job.Filters)))

	ffmpeg := Fallback(e.FFmpeg, "ffmpeg")
	if res, err := runner.OrDefault(e.Runner).Run(ctx, ffmpeg, args, runOpts); err != nil {
		_ = os.Remove(partial)
		if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" && job.LogPath == "" {
			return fmt.Errorf("ffmpeg failed: %w (stderr: %s)", err, stderr)
		}
		if job.LogPath != "" {
			return fmt.Errorf("ffmpeg failed: %w (see %s)", err, job.LogPath)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	if err := os.Rename(partial, job.Output); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}
