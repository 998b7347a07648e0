// Package tools checks the external binaries the pipeline depends on.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"shortsmith/internal/runner"
)

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path,omitempty"`
	Version   string   `json:"version,omitempty"`
	Minimum   string   `json:"minimum,omitempty"`
	Required  bool     `json:"required"`
	Available bool     `json:"available"`
	Satisfied bool     `json:"satisfied"`
	Purpose   string   `json:"purpose,omitempty"`
	Error     string   `json:"error,omitempty"`
	Hints     []string `json:"hints,omitempty"`
}

// Checker resolves and versions tools. The zero value uses exec.LookPath and
// real subprocesses.
type Checker struct {
	Runner   runner.Runner
	LookPath func(string) (string, error)
}

// Check probes every requirement in order.
func (c Checker) Check(ctx context.Context, reqs []Requirement) []ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	result := make([]ToolInfo, 0, len(reqs))
	for _, req := range reqs {
		result = append(result, c.probeOne(ctx, req))
	}
	return result
}

// Missing returns the required tools that are unavailable or too old.
func Missing(infos []ToolInfo) []ToolInfo {
	var missing []ToolInfo
	for _, info := range infos {
		if info.Required && !info.Satisfied {
			missing = append(missing, info)
		}
	}
	return missing
}

func (c Checker) probeOne(ctx context.Context, req Requirement) ToolInfo {
	info := ToolInfo{
		Name:     req.Name,
		Minimum:  req.MinimumVersion,
		Required: req.Required,
		Purpose:  req.Purpose,
	}
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(req.Binary)
	if err != nil {
		info.Hints = installHints(req.Name)
		if errors.Is(err, exec.ErrNotFound) {
			info.Error = "not found"
			return info
		}
		info.Error = err.Error()
		return info
	}
	info.Path = path
	info.Available = true

	version, err := c.readVersion(ctx, path, req)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Version = version
	info.Satisfied = meetsMinimum(version, req.MinimumVersion)
	if !info.Satisfied {
		info.Error = fmt.Sprintf("version %s below minimum %s", version, req.MinimumVersion)
		info.Hints = installHints(req.Name)
	}
	return info
}

func (c Checker) readVersion(ctx context.Context, path string, req Requirement) (string, error) {
	switchArg := req.VersionSwitch
	if switchArg == "" {
		switchArg = "--version"
	}
	res, err := runner.OrDefault(c.Runner).Run(ctx, path, []string{switchArg}, runner.RunOptions{})
	if err != nil {
		return "", fmt.Errorf("%s version: %w", req.Name, err)
	}
	line := firstLine(strings.TrimSpace(string(res.Stdout)))
	return normalizeVersionLine(req.Name, line), nil
}
