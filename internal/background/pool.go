// Package background picks source clips (and music beds) from asset directories.
package background

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoBackgroundAvailable is returned when a pool directory is missing or has
// no file with a recognised extension.
var ErrNoBackgroundAvailable = errors.New("no background available")

// DefaultVideoExtensions lists the container extensions treated as clips.
var DefaultVideoExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".m4v"}

// DefaultMusicExtensions lists the extensions treated as music beds.
var DefaultMusicExtensions = []string{".mp3", ".m4a", ".aac", ".wav", ".ogg", ".flac"}

// Pool is a flat directory of candidate media files.
type Pool struct {
	Dir        string
	Extensions []string
}

// List returns the sorted candidate paths. A missing or empty directory, or a
// path that is not a directory, yields ErrNoBackgroundAvailable.
func (p Pool) List() ([]string, error) {
	dir := strings.TrimSpace(p.Dir)
	if dir == "" {
		return nil, fmt.Errorf("%w: directory not configured", ErrNoBackgroundAvailable)
	}
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoBackgroundAvailable, dir)
	case err != nil:
		return nil, fmt.Errorf("stat pool %s: %w", dir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoBackgroundAvailable, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read pool %s: %w", dir, err)
	}

	allowed := extensionSet(p.Extensions)
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no matching files in %s", ErrNoBackgroundAvailable, dir)
	}
	sort.Strings(files)
	return files, nil
}

// Pick returns one candidate chosen uniformly at random using rng.
func (p Pool) Pick(rng *rand.Rand) (string, error) {
	files, err := p.List()
	if err != nil {
		return "", err
	}
	if rng == nil {
		return files[rand.IntN(len(files))], nil
	}
	return files[rng.IntN(len(files))], nil
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
