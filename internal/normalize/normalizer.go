package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shortsmith/internal/media"
	"shortsmith/internal/render"
	"shortsmith/internal/runner"
)

// Normalizer writes normalized, silent intermediates with ffmpeg.
type Normalizer struct {
	Runner runner.Runner
	FFmpeg string
	Codec  string
	Preset string
	CRF    int
	Logger *slog.Logger
}

// Normalize plans and renders src into dest: target geometry and framerate,
// exactly duration seconds long, no audio. Any failure to read or decode the
// source is reported as media.ErrUnreadableBackground.
func (n Normalizer) Normalize(ctx context.Context, src *media.Handle, target TargetSpec, duration float64, rng *rand.Rand, dest string) (Plan, error) {
	if src == nil {
		return Plan{}, errors.New("normalize: nil source")
	}
	if strings.TrimSpace(dest) == "" {
		return Plan{}, errors.New("normalize: destination is empty")
	}

	srcW, srcH := src.Dimensions()
	geometry, err := PlanGeometry(srcW, srcH, target)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %s: %v", media.ErrUnreadableBackground, filepath.Base(src.Path), err)
	}
	timing, err := PlanDuration(src.Duration(), duration, rng)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %s: %v", media.ErrUnreadableBackground, filepath.Base(src.Path), err)
	}
	plan := Plan{Geometry: geometry, Duration: timing, FPS: target.FPS}

	args := n.buildArgs(src.Path, plan, dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Plan{}, fmt.Errorf("ensure normalize directory: %w", err)
	}

	logger := n.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("normalizing background",
		slog.String("source", src.Path),
		slog.Int("crop_w", geometry.Crop.Width),
		slog.Int("crop_h", geometry.Crop.Height),
		slog.Float64("offset", timing.Offset),
		slog.Int("plays", timing.Plays),
	)

	res, err := runner.OrDefault(n.Runner).Run(ctx, render.Fallback(n.FFmpeg, "ffmpeg"), args, runner.RunOptions{})
	if err != nil {
		_ = os.Remove(dest)
		if ctx.Err() != nil {
			return Plan{}, ctx.Err()
		}
		stderr := strings.TrimSpace(string(res.Stderr))
		return Plan{}, fmt.Errorf("%w: %s: ffmpeg: %v (stderr: %s)", media.ErrUnreadableBackground, filepath.Base(src.Path), err, stderr)
	}
	return plan, nil
}

func (n Normalizer) buildArgs(source string, plan Plan, dest string) []string {
	args := []string{"-hide_banner", "-y"}
	args = append(args, plan.InputArgs()...)
	args = append(args,
		"-i", source,
		"-t", render.FormatFloat(plan.Duration.Target),
		"-vf", plan.VideoFilters(),
		"-an",
		"-c:v", render.Fallback(n.Codec, "libx264"),
	)
	if preset := strings.TrimSpace(n.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	if n.CRF >= 0 {
		args = append(args, "-crf", strconv.Itoa(n.CRF))
	}
	args = append(args, "-pix_fmt", "yuv420p", dest)
	return args
}
