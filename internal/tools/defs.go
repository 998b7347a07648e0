package tools

import (
	"path/filepath"
	"runtime"

	"shortsmith/internal/config"
)

// Requirement describes an external binary the pipeline shells out to.
type Requirement struct {
	Name           string
	Binary         string
	VersionSwitch  string
	MinimumVersion string
	// Required tools fail the check when missing; optional ones only warn.
	Required bool
	Purpose  string
}

// Requirements lists the binaries used with cfg's tool overrides applied.
func Requirements(cfg config.Config) []Requirement {
	return []Requirement{
		{
			Name:           "ffmpeg",
			Binary:         executableName(cfg.FFmpegPath()),
			VersionSwitch:  "-version",
			MinimumVersion: "6.0",
			Required:       true,
			Purpose:        "normalize, mix and encode",
		},
		{
			Name:           "ffprobe",
			Binary:         executableName(cfg.FFprobePath()),
			VersionSwitch:  "-version",
			MinimumVersion: "6.0",
			Required:       true,
			Purpose:        "inspect media",
		},
		{
			Name:          "uvx",
			Binary:        executableName(cfg.UVXPath()),
			VersionSwitch: "--version",
			Purpose:       "run whisperx for caption timing",
		},
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}
