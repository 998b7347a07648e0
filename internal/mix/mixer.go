// Package mix produces the final soundtrack: narration, optionally with a
// quiet looping music bed underneath.
package mix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shortsmith/internal/media"
	"shortsmith/internal/render"
	"shortsmith/internal/runner"
)

// DefaultMusicGain keeps music well below narration.
const DefaultMusicGain = 0.12

// ErrMusicMix marks a music bed that could not be mixed. The mixer recovers by
// producing narration only.
var ErrMusicMix = errors.New("music mix failed")

// Mixer renders soundtracks with ffmpeg.
type Mixer struct {
	Runner     runner.Runner
	FFmpeg     string
	MusicGain  float64
	Codec      string
	Bitrate    int
	SampleRate int
	Logger     *slog.Logger
}

// Result describes the written soundtrack.
type Result struct {
	Path       string
	MusicMixed bool
	// Degraded holds the recovered music failure, if any.
	Degraded error
}

// Mix writes a soundtrack of exactly duration seconds to dest. Narration is
// padded with silence or truncated to fit. When music is given it loops under
// the narration at MusicGain; if that fails the mix is retried without music.
// A narration-only failure is media.ErrUnreadableAudio.
func (m Mixer) Mix(ctx context.Context, narration, music *media.Handle, duration float64, dest string) (Result, error) {
	if narration == nil {
		return Result{}, fmt.Errorf("%w: no narration", media.ErrUnreadableAudio)
	}
	if duration <= 0 {
		return Result{}, fmt.Errorf("mix: duration must be positive, got %v", duration)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("ensure mix directory: %w", err)
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result := Result{Path: dest}
	if music != nil {
		err := m.run(ctx, m.musicArgs(narration.Path, music.Path, duration, dest))
		if err == nil {
			result.MusicMixed = true
			return result, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		result.Degraded = fmt.Errorf("%w: %s: %v", ErrMusicMix, filepath.Base(music.Path), err)
		logger.Warn("music mix failed; continuing with narration only",
			slog.String("music", music.Path),
			slog.Any("error", err),
		)
	}

	if err := m.run(ctx, m.narrationArgs(narration.Path, duration, dest)); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%w: %s: %v", media.ErrUnreadableAudio, filepath.Base(narration.Path), err)
	}
	return result, nil
}

func (m Mixer) run(ctx context.Context, args []string) error {
	res, err := runner.OrDefault(m.Runner).Run(ctx, render.Fallback(m.FFmpeg, "ffmpeg"), args, runner.RunOptions{})
	if err != nil {
		_ = os.Remove(args[len(args)-1])
		if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" {
			return fmt.Errorf("ffmpeg: %w (stderr: %s)", err, stderr)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func (m Mixer) narrationArgs(narration string, duration float64, dest string) []string {
	args := []string{
		"-hide_banner", "-y",
		"-i", narration,
		"-af", "apad",
		"-t", render.FormatFloat(duration),
		"-vn",
	}
	return append(append(args, m.encodeArgs()...), dest)
}

func (m Mixer) musicArgs(narration, music string, duration float64, dest string) []string {
	graph := fmt.Sprintf("[1:a]volume=%s[bed];[0:a]apad[voice];[voice][bed]amix=inputs=2:duration=first:normalize=0[out]",
		render.FormatFloat(m.gain()))
	args := []string{
		"-hide_banner", "-y",
		"-i", narration,
		"-stream_loop", "-1",
		"-i", music,
		"-filter_complex", graph,
		"-map", "[out]",
		"-t", render.FormatFloat(duration),
		"-vn",
	}
	return append(append(args, m.encodeArgs()...), dest)
}

func (m Mixer) encodeArgs() []string {
	args := []string{"-c:a", render.Fallback(m.Codec, "aac")}
	if m.Bitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(m.Bitrate)+"k")
	}
	if m.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(m.SampleRate))
	}
	return args
}

func (m Mixer) gain() float64 {
	if m.MusicGain <= 0 || m.MusicGain >= 1 {
		return DefaultMusicGain
	}
	return m.MusicGain
}
