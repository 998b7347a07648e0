package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortsmith/internal/history"
	"shortsmith/internal/paths"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent composition attempts",
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show (0 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	exists, err := paths.FileExists(pp.HistoryDB)
	if err != nil {
		return fmt.Errorf("stat history db: %w", err)
	}
	if !exists {
		if outputJSON {
			fmt.Fprintln(cmd.OutOrStdout(), "[]")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No compositions recorded yet.")
		return nil
	}

	store, err := history.Open(cmd.Context(), pp.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if outputJSON {
		if entries == nil {
			entries = []history.Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderHistory(entries))
	return nil
}

func renderHistory(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := baseOrDash(e.OutputPath)
		if e.State != "done" && e.Reason != "" {
			detail = e.Reason
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(e.AudioSource),
			e.State,
			baseOrDash(e.BackgroundSource),
			fmt.Sprintf("%.1fs", e.DurationSeconds),
			fmt.Sprintf("%d", e.CaptionCount),
			detail,
		})
	}
	return renderTable(
		[]string{"WHEN", "AUDIO", "STATE", "BACKGROUND", "LENGTH", "CAPTIONS", "DETAIL"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignLeft},
	)
}

func baseOrDash(path string) string {
	if strings.TrimSpace(path) == "" {
		return "-"
	}
	return filepath.Base(path)
}
