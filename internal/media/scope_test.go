package media

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"shortsmith/internal/testsupport"
)

func TestScopeReleasesInReverseOrder(t *testing.T) {
	scope := NewScope(Prober{}, nil)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		if err := scope.Track(name, CloserFunc(func() error {
			order = append(order, name)
			return nil
		})); err != nil {
			t.Fatalf("Track(%s): %v", name, err)
		}
	}

	if err := scope.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := []string{"third", "second", "first"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("release order = %v, want %v", order, want)
		}
	}
	if stats := scope.Stats(); stats.Acquired != 3 || !stats.Balanced() {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestScopeContinuesPastReleaseErrors(t *testing.T) {
	scope := NewScope(Prober{}, nil)
	boom := errors.New("boom")
	released := 0

	_ = scope.Track("ok-1", CloserFunc(func() error { released++; return nil }))
	_ = scope.Track("bad", CloserFunc(func() error { released++; return boom }))
	_ = scope.Track("ok-2", CloserFunc(func() error { released++; return nil }))

	err := scope.Close()
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined release error, got %v", err)
	}
	if released != 3 {
		t.Fatalf("released %d resources, want 3", released)
	}
	if !scope.Stats().Balanced() {
		t.Fatalf("unbalanced stats %+v", scope.Stats())
	}
}

func TestScopeCloseIsIdempotent(t *testing.T) {
	scope := NewScope(Prober{}, nil)
	calls := 0
	_ = scope.Track("once", CloserFunc(func() error { calls++; return nil }))

	_ = scope.Close()
	_ = scope.Close()
	if calls != 1 {
		t.Fatalf("closer called %d times, want 1", calls)
	}
}

func TestScopeTrackAfterCloseReleasesImmediately(t *testing.T) {
	scope := NewScope(Prober{}, nil)
	_ = scope.Close()

	calls := 0
	err := scope.Track("late", CloserFunc(func() error { calls++; return nil }))
	if err == nil {
		t.Fatal("expected error tracking into a closed scope")
	}
	if calls != 1 || !scope.Stats().Balanced() {
		t.Fatalf("calls=%d stats=%+v", calls, scope.Stats())
	}
}

func TestScopeOpenProbesAndTracks(t *testing.T) {
	dir := t.TempDir()
	fake := testsupport.NewMediaRunner()
	clip := filepath.Join(dir, "clip.mp4")
	fake.AddVideo(t, clip, 1280, 720, 5)

	scope := NewScope(Prober{Runner: fake, FFprobe: "ffprobe"}, nil)
	h, err := scope.Open(context.Background(), clip)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if w, hgt := h.Dimensions(); w != 1280 || hgt != 720 {
		t.Fatalf("dimensions %dx%d", w, hgt)
	}
	if h.Duration() != 5 {
		t.Fatalf("duration %v", h.Duration())
	}

	_ = scope.Close()
	if !h.Closed() {
		t.Fatal("expected handle closed by scope")
	}
	if err := h.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second close = %v, want ErrClosed", err)
	}
}

func TestScopeOpenFailureAcquiresNothing(t *testing.T) {
	dir := t.TempDir()
	fake := testsupport.NewMediaRunner()
	junk := filepath.Join(dir, "junk.mp4")
	testsupport.WriteFile(t, junk, 10)

	scope := NewScope(Prober{Runner: fake, FFprobe: "ffprobe"}, nil)
	if _, err := scope.Open(context.Background(), junk); err == nil {
		t.Fatal("expected probe failure")
	}
	if _, err := scope.Open(context.Background(), filepath.Join(dir, "missing.mp4")); err == nil {
		t.Fatal("expected open failure")
	}
	if stats := scope.Stats(); stats.Acquired != 0 {
		t.Fatalf("stats = %+v, want nothing acquired", stats)
	}
}
