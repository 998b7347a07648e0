package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortsmith/internal/background"
	"shortsmith/internal/config"
	"shortsmith/internal/paths"
	"shortsmith/internal/probe"
	"shortsmith/internal/runner"
)

var backgroundsProbe bool

func newBackgroundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backgrounds",
		Short: "List the background clips and music beds available for composition",
		RunE:  runBackgrounds,
	}
	cmd.Flags().BoolVar(&backgroundsProbe, "probe", false, "Inspect each file with ffprobe and show its duration and size")
	return cmd
}

type poolEntry struct {
	Pool     string  `json:"pool"`
	Path     string  `json:"path"`
	Duration float64 `json:"duration_seconds,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type inspectFunc func(ctx context.Context, path string) (probe.Info, error)

func runBackgrounds(cmd *cobra.Command, _ []string) error {
	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	var inspect inspectFunc
	if backgroundsProbe {
		ffprobe := cfg.FFprobePath()
		inspect = func(ctx context.Context, path string) (probe.Info, error) {
			return probe.Inspect(ctx, runner.CmdRunner{}, ffprobe, path)
		}
	}

	entries, err := listPools(cmd.Context(), pp, cfg, inspect)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No background clips found in %s\n", pp.BackgroundDir)
		return nil
	}
	headers := []string{"POOL", "FILE"}
	aligns := []text.Align{text.AlignLeft, text.AlignLeft}
	if inspect != nil {
		headers = append(headers, "DURATION", "SIZE")
		aligns = append(aligns, text.AlignRight, text.AlignRight)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{e.Pool, filepath.Base(e.Path)}
		if inspect != nil {
			if e.Error != "" {
				row = append(row, "-", e.Error)
			} else {
				row = append(row, fmt.Sprintf("%.1fs", e.Duration), sizeLabel(e.Width, e.Height))
			}
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

// listPools returns the background clips followed by the music beds. An
// empty or missing pool contributes nothing. When inspect is non-nil every
// file is probed and failures are recorded on the entry.
func listPools(ctx context.Context, pp paths.ProjectPaths, cfg config.Config, inspect inspectFunc) ([]poolEntry, error) {
	type namedPool struct {
		name string
		pool background.Pool
	}
	pools := []namedPool{
		{"background", background.Pool{Dir: pp.BackgroundDir, Extensions: extensionsOr(cfg.Assets.BackgroundExts, background.DefaultVideoExtensions)}},
	}
	if pp.MusicDir != "" {
		pools = append(pools, namedPool{"music", background.Pool{Dir: pp.MusicDir, Extensions: extensionsOr(cfg.Assets.MusicExts, background.DefaultMusicExtensions)}})
	}

	var entries []poolEntry
	for _, p := range pools {
		files, err := p.pool.List()
		if err != nil {
			if errors.Is(err, background.ErrNoBackgroundAvailable) {
				continue
			}
			return nil, err
		}
		for _, path := range files {
			entry := poolEntry{Pool: p.name, Path: path}
			if inspect != nil {
				info, err := inspect(ctx, path)
				if err != nil {
					entry.Error = err.Error()
				} else {
					entry.Duration = info.DurationSeconds()
					entry.Width, entry.Height = info.Dimensions()
				}
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func sizeLabel(width, height int) string {
	if width == 0 || height == 0 {
		return "audio"
	}
	return fmt.Sprintf("%dx%d", width, height)
}
