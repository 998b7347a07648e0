package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortsmith/internal/compose"
	"shortsmith/internal/history"
	"shortsmith/internal/logx"
	"shortsmith/internal/paths"
	"shortsmith/internal/render"
	"shortsmith/internal/tools"
	"shortsmith/internal/tui"
)

var (
	composeAudio       []string
	composeOutput      string
	composeTitle       string
	composeSeed        uint64
	composeNoRandomize bool
	composeConcurrency int
	composeNoProgress  bool
	composeForce       bool
)

func newComposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose [AUDIO...]",
		Short: "Compose a captioned vertical short for each narration file",
		RunE:  runCompose,
	}

	cmd.Flags().StringSliceVar(&composeAudio, "audio", nil, "Narration audio file (repeat or comma-separate for a batch)")
	cmd.Flags().StringVar(&composeOutput, "output", "", "Output base name (single narration only)")
	cmd.Flags().StringVar(&composeTitle, "title", "", "Title recorded in the sidecar")
	cmd.Flags().Uint64Var(&composeSeed, "seed", 0, "Seed for reproducible random choices; batch entries use seed+index")
	cmd.Flags().BoolVar(&composeNoRandomize, "no-randomize", false, "Use the default caption style and no cosmetic variation")
	cmd.Flags().IntVar(&composeConcurrency, "concurrency", 1, "Compositions to run at once")
	cmd.Flags().BoolVar(&composeNoProgress, "no-progress", false, "Disable interactive progress output")
	cmd.Flags().BoolVar(&composeForce, "force", false, "Replace outputs that already exist")

	return cmd
}

var errNoNarration = errors.New("no narration given; pass --audio FILE")

type composeFlags struct {
	Audio        []string
	Output       string
	NameTemplate string
	Title        string
	Seed         *uint64
	Overwrite    bool
	Now          time.Time
}

// buildRequests turns the command line into one request per narration.
func buildRequests(flags composeFlags) ([]compose.Request, error) {
	var audio []string
	for _, path := range flags.Audio {
		if path = strings.TrimSpace(path); path != "" {
			audio = append(audio, path)
		}
	}
	if len(audio) == 0 {
		return nil, errNoNarration
	}
	if flags.Output != "" && len(audio) > 1 {
		return nil, errors.New("--output can only be used with a single narration")
	}

	seen := make(map[string]string, len(audio))
	requests := make([]compose.Request, 0, len(audio))
	for i, path := range audio {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		req := compose.Request{
			AudioPath:  abs,
			OutputName: flags.Output,
			Title:      flags.Title,
			Overwrite:  flags.Overwrite,
		}
		if req.OutputName == "" && flags.NameTemplate != "" {
			req.OutputName = render.OutputBaseName(flags.NameTemplate, render.NameValues{
				AudioPath: abs,
				Title:     flags.Title,
				Index:     i + 1,
				Date:      flags.Now,
			})
		}
		if flags.Seed != nil {
			seed := *flags.Seed + uint64(i)
			req.Seed = &seed
		}
		name := paths.ProjectPaths{}.OutputFor(req.Name()).Name
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s.mp4", other, path, name)
		}
		seen[name] = path
		requests = append(requests, req)
	}
	return requests, nil
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	audio := append(append([]string{}, composeAudio...), args...)
	if len(audio) == 0 {
		return errNoNarration
	}

	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	flags := composeFlags{
		Audio:        audio,
		Output:       composeOutput,
		NameTemplate: cfg.Output.NameTemplate,
		Title:        composeTitle,
		Overwrite:    composeForce,
		Now:          time.Now(),
	}
	if cmd.Flags().Changed("seed") {
		seed := composeSeed
		flags.Seed = &seed
	}
	requests, err := buildRequests(flags)
	if err != nil {
		return err
	}
	if composeNoRandomize {
		cfg.SetRandomize(false)
	}
	for _, r := range cfg.Validate(pp.Root) {
		if r.Level == "error" {
			return fmt.Errorf("invalid config: %s", r.Message)
		}
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	if missing := tools.Missing(tools.Checker{}.Check(ctx, tools.Requirements(cfg))); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.Name
		}
		return fmt.Errorf("required tools unavailable: %s; run `shortsmith doctor` for details", strings.Join(names, ", "))
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, composeNoProgress, outputJSON)

	logOpts := logx.Options{Level: logLevel}
	switch mode {
	case tui.ModePlain:
		logOpts.Console = cmd.ErrOrStderr()
	case tui.ModeJSON:
		logOpts.Console = cmd.ErrOrStderr()
		logOpts.JSON = true
	}
	logger, closer, err := logx.New(pp, logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	var store *history.Store
	if cfg.HistoryEnabled() {
		store, err = history.Open(ctx, pp.HistoryDB)
		if err != nil {
			logger.Warn("history unavailable", slog.String("error", err.Error()))
			store = nil
		} else {
			defer store.Close()
		}
	}

	engine := compose.NewEngine(cfg, pp, compose.Options{History: store, Logger: logger})
	logger.Info("compose batch",
		slog.String("project", pp.Root),
		slog.Int("count", len(requests)),
		slog.String("transcriber", engine.TranscriberName()),
	)

	results, err := runBatch(ctx, engine, requests, mode, out)
	if err != nil {
		return err
	}

	switch mode {
	case tui.ModeJSON:
		if err := writeComposeJSON(out, results); err != nil {
			return err
		}
	case tui.ModePlain:
		fmt.Fprintln(out, renderComposeResults(results))
	}

	summary := compose.Summarize(results)
	if mode != tui.ModeJSON {
		fmt.Fprintf(out, "Composed %d of %d into %s\n", summary.Done, len(results), pp.OutputDir)
	}
	if failed := summary.Failed + summary.Errors; failed > 0 {
		return fmt.Errorf("%d of %d compositions failed", failed, len(results))
	}
	return nil
}

// runBatch composes requests, driving the interactive view in TUI mode.
func runBatch(ctx context.Context, engine *compose.Engine, requests []compose.Request, mode tui.OutputMode, out io.Writer) ([]compose.BatchResult, error) {
	opts := compose.BatchOptions{Concurrency: composeConcurrency}
	if mode != tui.ModeTUI {
		return engine.Batch(ctx, requests, opts), nil
	}

	audio := make([]string, len(requests))
	for i, req := range requests {
		audio[i] = req.AudioPath
	}
	// Quitting the view cancels the batch; wait for it so every composition
	// has released its resources before returning.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var results []compose.BatchResult
	workDone := make(chan struct{})
	model := tui.NewBatchModel("shortsmith compose", audio)
	_, err := tui.RunWithWork(out, model, func(send func(tea.Msg)) {
		defer close(workDone)
		opts.Reporter = tui.NewBatchReporter(send)
		results = engine.Batch(ctx, requests, opts)
	})
	cancel()
	<-workDone
	if err != nil {
		return nil, err
	}
	return results, nil
}

func renderComposeResults(results []compose.BatchResult) string {
	rows := make([][]string, 0, len(results))
	for i, res := range results {
		row := tui.FinishedRow(i, res.Outcome)
		if res.Err != nil {
			row.Status = tui.StatusError
			row.Detail = res.Err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			filepath.Base(res.Outcome.Request.AudioPath),
			row.Status,
			tui.NonEmptyOrDash(row.Background),
			fmt.Sprintf("%.1fs", row.Elapsed.Seconds()),
			row.Detail,
		})
	}
	return renderTable(
		[]string{"#", "AUDIO", "STATUS", "BACKGROUND", "TIME", "DETAIL"},
		rows,
		[]text.Align{text.AlignRight, text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignLeft},
	)
}

type composeJSON struct {
	Audio      string   `json:"audio"`
	RunID      string   `json:"run_id"`
	State      string   `json:"state"`
	Output     string   `json:"output,omitempty"`
	Sidecar    string   `json:"sidecar,omitempty"`
	Background string   `json:"background,omitempty"`
	Music      string   `json:"music,omitempty"`
	Seed       uint64   `json:"seed"`
	Reason     string   `json:"reason,omitempty"`
	Error      string   `json:"error,omitempty"`
	Recovered  []string `json:"recovered,omitempty"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

func writeComposeJSON(w io.Writer, results []compose.BatchResult) error {
	payload := make([]composeJSON, 0, len(results))
	for _, res := range results {
		o := res.Outcome
		item := composeJSON{
			Audio:     o.Request.AudioPath,
			RunID:     o.RunID,
			State:     o.State.String(),
			Seed:      o.Seed,
			Reason:    o.Reason,
			ElapsedMS: o.Elapsed.Milliseconds(),
		}
		if o.OK() {
			item.Output = o.OutputPath
			item.Sidecar = o.SidecarPath
		}
		if o.Result != nil {
			item.Background = o.Result.BackgroundSource
			item.Music = o.Result.MusicSource
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		for _, rec := range o.Recovered {
			item.Recovered = append(item.Recovered, rec.Error())
		}
		payload = append(payload, item)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
