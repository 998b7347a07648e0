package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shortsmith/internal/config"
)

// ProjectPaths captures canonical locations for a shortsmith project.
type ProjectPaths struct {
	Root          string
	ConfigFile    string
	EnvFile       string
	MetaDir       string
	LogsDir       string
	WorkDir       string
	HistoryDB     string
	BackgroundDir string
	MusicDir      string
	OutputDir     string
}

// OutputPaths are the files one composition produces, sharing a base name.
type OutputPaths struct {
	Name    string
	Video   string
	Partial string
	Sidecar string
	Lock    string
	Log     string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, ".shortsmith")
	return ProjectPaths{
		Root:          root,
		ConfigFile:    filepath.Join(root, "shortsmith.yaml"),
		EnvFile:       filepath.Join(root, ".env"),
		MetaDir:       metaDir,
		LogsDir:       filepath.Join(root, "logs"),
		WorkDir:       filepath.Join(metaDir, "work"),
		HistoryDB:     filepath.Join(metaDir, "history.db"),
		BackgroundDir: filepath.Join(root, "backgrounds"),
		MusicDir:      filepath.Join(root, "music"),
		OutputDir:     filepath.Join(root, "shorts"),
	}
}

// ApplyConfig resolves the configured asset and output directories against
// the project root.
func ApplyConfig(pp ProjectPaths, cfg config.Config) ProjectPaths {
	if dir := strings.TrimSpace(cfg.Assets.BackgroundDir); dir != "" {
		pp.BackgroundDir = resolveProjectPath(pp.Root, dir)
	}
	if dir := strings.TrimSpace(cfg.Assets.MusicDir); dir != "" {
		pp.MusicDir = resolveProjectPath(pp.Root, dir)
	} else {
		pp.MusicDir = ""
	}
	if dir := strings.TrimSpace(cfg.Output.Dir); dir != "" {
		pp.OutputDir = resolveProjectPath(pp.Root, dir)
	}
	return pp
}

// OutputFor returns the output file set for name. The extension, if any, is
// replaced with .mp4.
func (p ProjectPaths) OutputFor(name string) OutputPaths {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return OutputPaths{
		Name:    base,
		Video:   filepath.Join(p.OutputDir, base+".mp4"),
		Partial: filepath.Join(p.OutputDir, base+".partial.mp4"),
		Sidecar: filepath.Join(p.OutputDir, base+".json"),
		Lock:    filepath.Join(p.MetaDir, "locks", base+".mp4.lock"),
		Log:     filepath.Join(p.LogsDir, base+".ffmpeg.log"),
	}
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureMetaDirs creates the hidden .shortsmith directory with its work area
// alongside the logs and output directories.
func (p ProjectPaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.WorkDir, p.LogsDir, p.OutputDir}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
