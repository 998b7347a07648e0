package normalize

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"shortsmith/internal/media"
	"shortsmith/internal/testsupport"
)

func openClip(t *testing.T, fake *testsupport.MediaRunner, path string, w, h int, dur float64) *media.Handle {
	t.Helper()
	fake.AddVideo(t, path, w, h, dur)
	handle, err := media.Prober{Runner: fake, FFprobe: "ffprobe"}.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { _ = handle.Close() })
	return handle
}

func TestNormalizeLandscapeShortClip(t *testing.T) {
	dir := t.TempDir()
	fake := testsupport.NewMediaRunner()
	src := openClip(t, fake, filepath.Join(dir, "clip.mp4"), 1280, 720, 5)
	dest := filepath.Join(dir, "work", "bg.mp4")

	n := Normalizer{Runner: fake, FFmpeg: "ffmpeg", CRF: 20}
	plan, err := n.Normalize(context.Background(), src, DefaultTarget(), 12, rand.New(rand.NewPCG(1, 2)), dest)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if plan.Geometry.Crop.Width != 405 || plan.Duration.Plays != 3 {
		t.Fatalf("plan = %+v", plan)
	}

	calls := fake.CallsTo("ffmpeg")
	if len(calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(calls))
	}
	args := calls[0].Args
	joined := strings.Join(args, " ")
	for _, want := range []string{"-stream_loop 2 -i", "-t 12", "crop=405:720:437:0", "-an"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != dest {
		t.Fatalf("expected dest last, got %s", args[len(args)-1])
	}

	out, err := media.Prober{Runner: fake, FFprobe: "ffprobe"}.Open(context.Background(), dest)
	if err != nil {
		t.Fatalf("open normalized: %v", err)
	}
	defer out.Close()
	if w, h := out.Dimensions(); w != 1080 || h != 1920 {
		t.Fatalf("normalized %dx%d", w, h)
	}
	if out.Duration() != 12 {
		t.Fatalf("normalized duration %v", out.Duration())
	}
	if _, ok := out.Info.Audio(); ok {
		t.Fatal("normalized clip should be silent")
	}
}

func TestNormalizeDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	fake := testsupport.NewMediaRunner()
	src := openClip(t, fake, filepath.Join(dir, "clip.mp4"), 1920, 1080, 30)
	fake.FFmpegHook = func([]string) error { return errors.New("moov atom not found") }

	n := Normalizer{Runner: fake}
	_, err := n.Normalize(context.Background(), src, DefaultTarget(), 12, nil, filepath.Join(dir, "bg.mp4"))
	if !errors.Is(err, media.ErrUnreadableBackground) {
		t.Fatalf("expected ErrUnreadableBackground, got %v", err)
	}
}

func TestNormalizeRejectsUnknownDuration(t *testing.T) {
	dir := t.TempDir()
	fake := testsupport.NewMediaRunner()
	src := openClip(t, fake, filepath.Join(dir, "clip.mp4"), 1920, 1080, 0)

	_, err := Normalizer{Runner: fake}.Normalize(context.Background(), src, DefaultTarget(), 12, nil, filepath.Join(dir, "bg.mp4"))
	if !errors.Is(err, media.ErrUnreadableBackground) {
		t.Fatalf("expected ErrUnreadableBackground, got %v", err)
	}
	if len(fake.CallsTo("ffmpeg")) != 0 {
		t.Fatal("ffmpeg should not run without a plan")
	}
}
