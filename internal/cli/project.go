package cli

import (
	"fmt"

	"shortsmith/internal/config"
	"shortsmith/internal/paths"
)

// loadProject resolves the project directory, loads its .env file and
// configuration, and applies environment overrides.
func loadProject() (paths.ProjectPaths, config.Config, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return paths.ProjectPaths{}, config.Config{}, err
	}
	if err := config.LoadEnvFile(pp.EnvFile); err != nil {
		return paths.ProjectPaths{}, config.Config{}, err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return paths.ProjectPaths{}, config.Config{}, err
	}
	cfg.ApplyEnv()
	return paths.ApplyConfig(pp, cfg), cfg, nil
}

func requireProjectDir(pp paths.ProjectPaths) error {
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}
	return nil
}
