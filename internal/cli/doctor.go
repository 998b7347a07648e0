package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortsmith/internal/background"
	"shortsmith/internal/config"
	"shortsmith/internal/paths"
	"shortsmith/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, configuration and asset pools",
		RunE:  runDoctor,
	}
}

const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

type doctorReport struct {
	Project string           `json:"project"`
	Checks  []healthCheck    `json:"checks"`
	Tools   []tools.ToolInfo `json:"tools"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, cfg, cfgErr := loadProject()
	if cfgErr != nil {
		resolved, err := paths.Resolve(projectDir)
		if err != nil {
			return err
		}
		pp = resolved
	}
	if err := requireProjectDir(pp); err != nil {
		return err
	}

	infos := tools.Checker{}.Check(cmd.Context(), tools.Requirements(cfg))
	report := doctorReport{Project: pp.Root, Tools: infos}
	report.Checks = append(report.Checks, checkTools(infos))
	report.Checks = append(report.Checks, checkConfig(pp, cfg, cfgErr))
	if cfgErr == nil {
		report.Checks = append(report.Checks,
			checkBackgrounds(pp, cfg),
			checkMusic(pp, cfg),
			checkCaptions(cfg, infos),
		)
	}

	if err := writeDoctorResult(cmd, report); err != nil {
		return err
	}
	for _, c := range report.Checks {
		if c.Status == statusError {
			return errors.New("doctor found problems")
		}
	}
	return nil
}

func checkTools(infos []tools.ToolInfo) healthCheck {
	var found []string
	for _, info := range infos {
		if info.Satisfied {
			label := info.Name
			if info.Version != "" {
				label += " " + info.Version
			}
			found = append(found, label)
		}
	}
	if missing := tools.Missing(infos); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.Name
		}
		return healthCheck{
			Name:    "Tools",
			Status:  statusError,
			Summary: "missing or outdated: " + strings.Join(names, ", "),
		}
	}
	return healthCheck{Name: "Tools", Status: statusOK, Summary: strings.Join(found, ", ")}
}

func checkConfig(pp paths.ProjectPaths, cfg config.Config, loadErr error) healthCheck {
	if loadErr != nil {
		return healthCheck{Name: "Config", Status: statusError, Summary: loadErr.Error()}
	}
	results := cfg.Validate(pp.Root)
	if len(results) == 0 {
		return healthCheck{Name: "Config", Status: statusOK, Summary: "valid"}
	}
	messages := make([]string, len(results))
	for i, r := range results {
		messages[i] = r.Message
	}
	status := statusWarning
	if config.HasErrors(results) {
		status = statusError
	}
	return healthCheck{Name: "Config", Status: status, Summary: strings.Join(messages, "; ")}
}

func checkBackgrounds(pp paths.ProjectPaths, cfg config.Config) healthCheck {
	pool := background.Pool{Dir: pp.BackgroundDir, Extensions: extensionsOr(cfg.Assets.BackgroundExts, background.DefaultVideoExtensions)}
	clips, err := pool.List()
	if err != nil {
		return healthCheck{Name: "Backgrounds", Status: statusError, Summary: err.Error()}
	}
	return healthCheck{Name: "Backgrounds", Status: statusOK, Summary: fmt.Sprintf("%d clips in %s", len(clips), pp.BackgroundDir)}
}

func checkMusic(pp paths.ProjectPaths, cfg config.Config) healthCheck {
	if strings.TrimSpace(pp.MusicDir) == "" {
		return healthCheck{Name: "Music", Status: statusOK, Summary: "disabled"}
	}
	pool := background.Pool{Dir: pp.MusicDir, Extensions: extensionsOr(cfg.Assets.MusicExts, background.DefaultMusicExtensions)}
	tracks, err := pool.List()
	if err != nil {
		return healthCheck{Name: "Music", Status: statusWarning, Summary: "shorts will have narration only: " + err.Error()}
	}
	return healthCheck{Name: "Music", Status: statusOK, Summary: fmt.Sprintf("%d tracks in %s", len(tracks), pp.MusicDir)}
}

func checkCaptions(cfg config.Config, infos []tools.ToolInfo) healthCheck {
	if cfg.Captions.Engine != config.EngineWhisperX {
		return healthCheck{Name: "Captions", Status: statusWarning, Summary: fmt.Sprintf("engine %q, placeholder captions only", cfg.Captions.Engine)}
	}
	for _, info := range infos {
		if info.Name == "uvx" && !info.Available {
			return healthCheck{Name: "Captions", Status: statusWarning, Summary: "uvx not found, placeholder captions only"}
		}
	}
	return healthCheck{Name: "Captions", Status: statusOK, Summary: "whisperx " + cfg.Captions.Model}
}

func extensionsOr(exts, fallback []string) []string {
	if len(exts) == 0 {
		return fallback
	}
	return exts
}

func writeDoctorResult(cmd *cobra.Command, report doctorReport) error {
	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+report.Project)

	rows := make([][]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		rows = append(rows, []string{c.Name, statusLabel(c.Status), c.Summary})
	}
	fmt.Fprintln(out, renderTable([]string{"CHECK", "STATUS", "SUMMARY"}, rows, nil))

	var hints []string
	for _, info := range report.Tools {
		if info.Satisfied {
			continue
		}
		for _, hint := range info.Hints {
			hints = append(hints, fmt.Sprintf("  %s: %s", info.Name, hint))
		}
	}
	if len(hints) > 0 {
		fmt.Fprintln(out, bold.Render("HINTS:"))
		for _, hint := range hints {
			fmt.Fprintln(out, hint)
		}
	}
	return nil
}

func statusLabel(status string) string {
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	switch status {
	case statusOK:
		return green.Render("OK")
	case statusWarning:
		return yellow.Render("WARN")
	case statusError:
		return red.Render("ERROR")
	default:
		return text.Bold.Sprint(strings.ToUpper(status))
	}
}
