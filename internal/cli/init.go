package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shortsmith/internal/config"
	"shortsmith/internal/logx"
	"shortsmith/internal/paths"
)

const envTemplate = `# Environment overrides for shortsmith. Values here never replace variables
# that are already set in the shell.
# SHORTSMITH_BACKGROUND_DIR=backgrounds
# SHORTSMITH_MUSIC_DIR=music
# SHORTSMITH_OUTPUT_DIR=shorts
# SHORTSMITH_RANDOMIZE=true
# SHORTSMITH_CAPTION_ENGINE=whisperx
# SHORTSMITH_WHISPERX_MODEL=medium
# SHORTSMITH_MUSIC_GAIN=0.1
# HF_TOKEN=
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a shortsmith project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("shortsmith-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}

	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp, logx.Options{Level: logLevel})
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("shortsmith init", slog.String("project", pp.Root))

	created, err := initProject(pp, logger)
	if err != nil {
		return err
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}
	return nil
}

// initProject creates the asset directories, the default config and an .env
// template. Existing files are left untouched. It returns what was created,
// relative to the project root.
func initProject(pp paths.ProjectPaths, logger *slog.Logger) ([]string, error) {
	var created []string

	defaults := config.Default()
	defaults.ApplyDefaults()
	assets := paths.ApplyConfig(pp, defaults)
	for _, dir := range []string{assets.BackgroundDir, assets.MusicDir} {
		exists, err := paths.DirExists(dir)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", dir, err)
		}
		if exists {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		logger.Info("created directory", slog.String("path", dir))
		created = append(created, relativeTo(pp.Root, dir)+"/")
	}

	wrote, err := ensureConfig(pp, logger)
	if err != nil {
		return nil, err
	}
	if wrote {
		created = append(created, relativeTo(pp.Root, pp.ConfigFile))
	}

	wrote, err = writeIfMissing(pp.EnvFile, []byte(envTemplate), logger)
	if err != nil {
		return nil, fmt.Errorf("write env template: %w", err)
	}
	if wrote {
		created = append(created, relativeTo(pp.Root, pp.EnvFile))
	}
	return created, nil
}

func ensureConfig(pp paths.ProjectPaths, logger *slog.Logger) (bool, error) {
	cfg := config.Default()
	cfg.ApplyDefaults()
	data, err := cfg.Marshal()
	if err != nil {
		return false, err
	}
	wrote, err := writeIfMissing(pp.ConfigFile, data, logger)
	if err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return wrote, nil
}

func writeIfMissing(path string, data []byte, logger *slog.Logger) (bool, error) {
	exists, err := paths.FileExists(path)
	if err != nil {
		return false, err
	}
	if exists {
		logger.Debug("file exists", slog.String("path", path))
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	logger.Info("created file", slog.String("path", path))
	return true, nil
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
