package background

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"shortsmith/internal/testsupport"
)

func TestPickMissingDirectory(t *testing.T) {
	pool := Pool{Dir: filepath.Join(t.TempDir(), "nope"), Extensions: DefaultVideoExtensions}
	if _, err := pool.Pick(rand.New(rand.NewPCG(1, 2))); !errors.Is(err, ErrNoBackgroundAvailable) {
		t.Fatalf("expected ErrNoBackgroundAvailable, got %v", err)
	}
}

func TestPickEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "notes.txt", ".hidden.mp4")
	pool := Pool{Dir: dir, Extensions: DefaultVideoExtensions}
	if _, err := pool.Pick(nil); !errors.Is(err, ErrNoBackgroundAvailable) {
		t.Fatalf("expected ErrNoBackgroundAvailable, got %v", err)
	}
}

func TestPickPathIsFile(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "backgrounds")
	pool := Pool{Dir: filepath.Join(dir, "backgrounds"), Extensions: DefaultVideoExtensions}
	if _, err := pool.Pick(nil); !errors.Is(err, ErrNoBackgroundAvailable) {
		t.Fatalf("expected ErrNoBackgroundAvailable, got %v", err)
	}
}

func TestListFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "b.MP4", "a.mov", "c.txt", "d.webm")

	files, err := Pool{Dir: dir, Extensions: []string{"mp4", ".MOV"}}.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{filepath.Join(dir, "a.mov"), filepath.Join(dir, "b.MP4")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files = %v, want %v", files, want)
		}
	}
}

func TestPickIsDeterministicForSeed(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "1.mp4", "2.mp4", "3.mp4", "4.mp4")
	pool := Pool{Dir: dir, Extensions: DefaultVideoExtensions}

	first, err := pool.Pick(rand.New(rand.NewPCG(42, 7)))
	if err != nil {
		t.Fatal(err)
	}
	second, err := pool.Pick(rand.New(rand.NewPCG(42, 7)))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("same seed picked %s and %s", first, second)
	}
}

func TestPickCoversAllCandidates(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "1.mp4", "2.mp4", "3.mp4")
	pool := Pool{Dir: dir, Extensions: DefaultVideoExtensions}
	rng := rand.New(rand.NewPCG(3, 5))

	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		path, err := pool.Pick(rng)
		if err != nil {
			t.Fatal(err)
		}
		seen[path]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected every clip to be picked, got %v", seen)
	}
}
