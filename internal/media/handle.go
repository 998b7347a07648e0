// Package media owns opened media files and the scope that releases them.
//
// A Handle pairs a read descriptor with the ffprobe description of the file.
// A Scope collects every resource acquired during one composition and
// releases them in reverse acquisition order exactly once.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shortsmith/internal/probe"
	"shortsmith/internal/runner"
)

// ErrClosed is returned when a handle is released twice.
var ErrClosed = errors.New("media handle already closed")

// Handle is an opened, probed media file. It has exactly one owner and must
// be closed exactly once.
type Handle struct {
	Path string
	Info probe.Info

	file *os.File
}

// Prober bundles what is needed to inspect media.
type Prober struct {
	Runner  runner.Runner
	FFprobe string
}

// Open opens path for reading and probes it. The descriptor is closed again
// when probing fails so a failed open never leaks.
func (p Prober) Open(ctx context.Context, path string) (*Handle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	info, err := probe.Inspect(ctx, p.Runner, p.FFprobe, path)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Handle{Path: path, Info: info, file: file}, nil
}

// Duration returns the probed duration in seconds.
func (h *Handle) Duration() float64 {
	if h == nil {
		return 0
	}
	return h.Info.DurationSeconds()
}

// Dimensions returns the probed video width and height.
func (h *Handle) Dimensions() (int, int) {
	if h == nil {
		return 0, 0
	}
	return h.Info.Dimensions()
}

// Close releases the underlying descriptor.
func (h *Handle) Close() error {
	if h == nil || h.file == nil {
		return ErrClosed
	}
	err := h.file.Close()
	h.file = nil
	return err
}

// Closed reports whether the handle has been released.
func (h *Handle) Closed() bool {
	return h == nil || h.file == nil
}

// Readability failures surfaced by the stages that decode media.
var (
	ErrUnreadableBackground = errors.New("background clip unreadable")
	ErrUnreadableAudio      = errors.New("narration audio unreadable")
)
