// Package compose drives one narration through background selection,
// normalization, captioning, mixing and encoding, and guarantees that every
// resource acquired on the way is released before Compose returns.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"shortsmith/internal/background"
	"shortsmith/internal/caption"
	"shortsmith/internal/config"
	"shortsmith/internal/history"
	"shortsmith/internal/logx"
	"shortsmith/internal/media"
	"shortsmith/internal/mix"
	"shortsmith/internal/normalize"
	"shortsmith/internal/overlay"
	"shortsmith/internal/paths"
	"shortsmith/internal/render"
	"shortsmith/internal/runner"
	"shortsmith/internal/sidecar"
	"shortsmith/internal/transcribe"
)

// Options configures NewEngine. Every field is optional.
type Options struct {
	Runner runner.Runner
	// Transcriber overrides the one selected from the captions config.
	Transcriber transcribe.Transcriber
	History     *history.Store
	Logger      *slog.Logger
	// Stderr receives a copy of the final encode's ffmpeg output.
	Stderr io.Writer
	Now    func() time.Time
}

// Engine composes shorts for one project. It holds no per-composition state
// and is safe for concurrent use.
type Engine struct {
	cfg         config.Config
	paths       paths.ProjectPaths
	runner      runner.Runner
	transcriber transcribe.Transcriber
	history     *history.Store
	logger      *slog.Logger
	stderr      io.Writer
	now         func() time.Time
}

// NewEngine binds an engine to cfg and the resolved project paths. The
// transcriber is chosen here, once.
func NewEngine(cfg config.Config, pp paths.ProjectPaths, opts Options) *Engine {
	r := runner.OrDefault(opts.Runner)
	tr := opts.Transcriber
	if tr == nil {
		tr = transcribe.New(transcribe.Options{
			Captions: cfg.Captions,
			UVX:      cfg.UVXPath(),
			WorkDir:  pp.WorkDir,
			Runner:   r,
		})
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:         cfg,
		paths:       pp,
		runner:      r,
		transcriber: tr,
		history:     opts.History,
		logger:      logx.Component(opts.Logger, "compose"),
		stderr:      opts.Stderr,
		now:         now,
	}
}

// TranscriberName reports which transcriber captions come from.
func (e *Engine) TranscriberName() string {
	return e.transcriber.Name()
}

// Request is one narration to compose.
type Request struct {
	AudioPath string
	// OutputName defaults to the narration's base name.
	OutputName string
	Title      string
	// Seed makes every random choice reproducible. A fresh seed is drawn
	// when nil.
	Seed      *uint64
	Overwrite bool
}

// Name returns the output base name.
func (r Request) Name() string {
	if name := strings.TrimSpace(r.OutputName); name != "" {
		return name
	}
	base := filepath.Base(r.AudioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Outcome is the result of one Compose call.
type Outcome struct {
	RunID       string
	Request     Request
	State       State
	Seed        uint64
	OutputPath  string
	SidecarPath string
	Result      *sidecar.Result
	// Reason is the failure kind when State is StateFailed.
	Reason string
	Err    error
	// Recovered lists failures that were worked around.
	Recovered []error
	Stats     media.Stats
	Elapsed   time.Duration
}

// OK reports whether the composition reached StateDone.
func (o Outcome) OK() bool {
	return o.State == StateDone
}

// Compose runs the full pipeline for req. Predictable failures (no background,
// unreadable media, encoding failure, output conflicts) end in an Outcome with
// StateFailed and a nil error; anything else is returned as an error. In every
// case, panics included, acquired resources are released in reverse order
// before Compose returns.
func (e *Engine) Compose(ctx context.Context, req Request) (outcome Outcome, err error) {
	started := e.now()
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	outcome = Outcome{RunID: uuid.NewString(), Request: req, Seed: seed, State: StateIdle}
	logger := e.logger.With(slog.String("run_id", outcome.RunID))
	logger.Info("composition started",
		slog.String("audio", req.AudioPath),
		slog.String("output", req.Name()),
		slog.Uint64("seed", seed),
	)

	sm := newMachine(logger)
	scope := media.NewScope(media.Prober{Runner: e.runner, FFprobe: e.cfg.FFprobePath()}, logger)
	c := &composition{
		engine:  e,
		req:     req,
		rng:     newRand(seed),
		scope:   scope,
		sm:      sm,
		logger:  logger,
		outcome: &outcome,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compose %s: panic: %v", req.AudioPath, r)
			logger.Error("composition panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			sm.fail(err)
			outcome.Reason = err.Error()
			outcome.Err = err
		}
		if cerr := scope.Close(); cerr != nil {
			logger.Warn("cleanup reported release errors", slog.Any("error", cerr))
		}
		outcome.State = sm.state
		outcome.Stats = scope.Stats()
		outcome.Elapsed = e.now().Sub(started)
		e.record(ctx, outcome, c.res)

		attrs := []any{
			slog.String("state", outcome.State.String()),
			slog.Int("acquired", outcome.Stats.Acquired),
			slog.Int("released", outcome.Stats.Released),
			slog.Duration("elapsed", outcome.Elapsed),
		}
		if outcome.OK() {
			logger.Info("composition finished", append(attrs, slog.String("output", outcome.OutputPath))...)
		} else {
			logger.Warn("composition failed", append(attrs, slog.String("reason", outcome.Reason))...)
		}
	}()

	if runErr := c.run(ctx); runErr != nil {
		sm.fail(runErr)
		outcome.Reason = Reason(runErr)
		outcome.Err = runErr
		if IsPredictable(runErr) {
			return outcome, nil
		}
		return outcome, runErr
	}
	return outcome, nil
}

// composition is the state of one Compose call.
type composition struct {
	engine  *Engine
	req     Request
	rng     *rand.Rand
	scope   *media.Scope
	sm      *machine
	logger  *slog.Logger
	outcome *Outcome
	res     sidecar.Result
}

func (c *composition) run(ctx context.Context) error {
	e := c.engine
	cfg := e.cfg
	randomize := cfg.RandomizeEnabled()

	if strings.TrimSpace(c.req.AudioPath) == "" {
		return fmt.Errorf("%w: no narration path given", ErrUnreadableAudio)
	}
	outputs := e.paths.OutputFor(c.req.Name())
	if err := c.claimOutput(outputs); err != nil {
		return err
	}
	workDir, err := c.workDir()
	if err != nil {
		return err
	}

	// Idle -> AudioLoaded
	narration, err := c.scope.Open(ctx, c.req.AudioPath)
	if err != nil {
		return classify(ctx, ErrUnreadableAudio, err)
	}
	if _, ok := narration.Info.Audio(); !ok {
		return fmt.Errorf("%w: %s has no audio stream", ErrUnreadableAudio, filepath.Base(narration.Path))
	}
	duration := narration.Duration()
	if duration <= 0 {
		return fmt.Errorf("%w: %s has no usable duration", ErrUnreadableAudio, filepath.Base(narration.Path))
	}
	if limit := cfg.Video.MaxDurationSeconds; limit > 0 && duration > limit {
		c.logger.Info("narration longer than maximum; capping",
			slog.Float64("narration", duration),
			slog.Float64("max", limit),
		)
		duration = limit
	}
	c.res.AudioSource = narration.Path
	c.res.Duration = duration
	c.sm.advance(StateAudioLoaded)

	// AudioLoaded -> BackgroundLoaded
	bgPath, err := background.Pool{
		Dir:        e.paths.BackgroundDir,
		Extensions: extensionsOr(cfg.Assets.BackgroundExts, background.DefaultVideoExtensions),
	}.Pick(c.rng)
	if err != nil {
		return err
	}
	c.res.BackgroundSource = bgPath
	bg, err := c.scope.Open(ctx, bgPath)
	if err != nil {
		return classify(ctx, ErrUnreadableBackground, err)
	}
	if _, ok := bg.Info.Video(); !ok {
		return fmt.Errorf("%w: %s has no video stream", ErrUnreadableBackground, filepath.Base(bgPath))
	}
	c.sm.advance(StateBackgroundLoaded)

	// BackgroundLoaded -> Normalized
	target := normalize.TargetSpec{
		Width:       cfg.Video.Width,
		Height:      cfg.Video.Height,
		FPS:         cfg.Video.FPS,
		MaxDuration: cfg.Video.MaxDurationSeconds,
	}
	normalizer := normalize.Normalizer{
		Runner: e.runner,
		FFmpeg: cfg.FFmpegPath(),
		Codec:  cfg.Video.Codec,
		Preset: cfg.Video.Preset,
		CRF:    cfg.Video.CRF,
		Logger: c.logger,
	}
	plan, err := normalizer.Normalize(ctx, bg, target, duration, c.rng, filepath.Join(workDir, "background.mp4"))
	if err != nil {
		return err
	}
	normalized, err := c.scope.Open(ctx, filepath.Join(workDir, "background.mp4"))
	if err != nil {
		return classify(ctx, ErrUnreadableBackground, err)
	}
	c.res.BackgroundOffset = plan.Duration.Offset
	c.res.BackgroundPlays = plan.Duration.Plays
	c.sm.advance(StateNormalized)

	// Normalized -> CaptionsAligned
	aligner := caption.Aligner{
		Transcriber: e.transcriber,
		Granularity: cfg.Captions.Granularity,
		Placeholder: cfg.Captions.Placeholder,
		Logger:      c.logger,
	}
	units := aligner.Align(ctx, narration.Path, duration)
	if err := ctx.Err(); err != nil {
		return err
	}
	style := overlay.StylePicker{Config: cfg.Style}.Pick(c.rng, randomize)
	overlays, renderErrs := overlay.Render(units, duration, style, overlay.Layout{
		Width:     cfg.Video.Width,
		Height:    cfg.Video.Height,
		BoxWidth:  cfg.Captions.BoxWidth,
		Transform: cfg.Captions.Transform,
	})
	for _, rerr := range renderErrs {
		c.recovered(rerr)
	}
	c.res.Style = style
	c.res.CaptionCount = len(overlays)
	c.res.Transcriber = e.transcriber.Name()
	c.sm.advance(StateCaptionsAligned)

	// CaptionsAligned -> Composited
	music := c.pickMusic(ctx)
	mixer := mix.Mixer{
		Runner:     e.runner,
		FFmpeg:     cfg.FFmpegPath(),
		MusicGain:  cfg.Audio.MusicGain,
		Codec:      cfg.Audio.ACodec,
		Bitrate:    cfg.Audio.BitrateKbps,
		SampleRate: cfg.Audio.SampleRate,
		Logger:     c.logger,
	}
	mixed, err := mixer.Mix(ctx, narration, music, duration, filepath.Join(workDir, "soundtrack.m4a"))
	if err != nil {
		return err
	}
	if mixed.Degraded != nil {
		c.recovered(mixed.Degraded)
	}
	if mixed.MusicMixed {
		c.res.MusicSource = music.Path
	}
	soundtrack, err := c.scope.Open(ctx, mixed.Path)
	if err != nil {
		return classify(ctx, ErrUnreadableAudio, err)
	}
	brightness, saturation := c.cosmetics(randomize)
	c.res.Brightness = brightness
	c.res.Saturation = saturation
	filters := append([]string{render.EqFilter(brightness, saturation)}, overlay.Filters(overlays)...)
	c.sm.advance(StateComposited)

	// Composited -> Encoded
	encoder := &render.Encoder{
		Runner: e.runner,
		FFmpeg: cfg.FFmpegPath(),
		Video:  cfg.Video,
		Audio:  cfg.Audio,
		Logger: c.logger,
	}
	encoder.SetStderr(e.stderr)
	if err := encoder.Encode(ctx, render.Job{
		Video:    normalized.Path,
		Audio:    soundtrack.Path,
		Filters:  filters,
		Duration: duration,
		Output:   outputs.Video,
		Partial:  outputs.Partial,
		LogPath:  outputs.Log,
	}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	c.res.OutputPath = outputs.Video
	c.res.Width = cfg.Video.Width
	c.res.Height = cfg.Video.Height
	c.res.FPS = cfg.Video.FPS
	c.res.Title = c.req.Title
	c.res.Seed = c.outcome.Seed
	c.res.ConfigHash = sidecar.ConfigHash(cfg)
	c.res.RunID = c.outcome.RunID
	c.res.Timestamp = e.now().UTC()
	if err := c.res.Save(outputs.Sidecar, true); err != nil {
		_ = os.Remove(outputs.Video)
		return fmt.Errorf("write sidecar: %w", err)
	}
	c.sm.advance(StateEncoded)

	result := c.res
	c.outcome.Result = &result
	c.outcome.OutputPath = outputs.Video
	c.outcome.SidecarPath = outputs.Sidecar
	c.sm.advance(StateDone)
	return nil
}

// claimOutput locks the output name for this composition. The lock is
// released through the scope.
func (c *composition) claimOutput(outputs paths.OutputPaths) error {
	if err := os.MkdirAll(filepath.Dir(outputs.Lock), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(outputs.Lock)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutputBusy, outputs.Video)
	}
	if err := c.scope.Track("lock:"+outputs.Lock, media.CloserFunc(lock.Unlock)); err != nil {
		return err
	}

	if !c.req.Overwrite {
		exists, err := paths.FileExists(outputs.Video)
		if err != nil {
			return fmt.Errorf("stat output: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrOutputExists, outputs.Video)
		}
	}
	return nil
}

// workDir creates the per-run scratch directory, removed when the scope
// closes.
func (c *composition) workDir() (string, error) {
	dir := filepath.Join(c.engine.paths.WorkDir, c.outcome.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	if err := c.scope.Track("workdir:"+dir, media.CloserFunc(func() error {
		return os.RemoveAll(dir)
	})); err != nil {
		return "", err
	}
	return dir, nil
}

// pickMusic returns an opened music bed, or nil when none is configured,
// available or readable.
func (c *composition) pickMusic(ctx context.Context) *media.Handle {
	cfg := c.engine.cfg
	dir := strings.TrimSpace(c.engine.paths.MusicDir)
	if dir == "" {
		return nil
	}
	path, err := background.Pool{
		Dir:        dir,
		Extensions: extensionsOr(cfg.Assets.MusicExts, background.DefaultMusicExtensions),
	}.Pick(c.rng)
	if err != nil {
		if errors.Is(err, background.ErrNoBackgroundAvailable) {
			c.logger.Debug("no music available", slog.String("dir", dir))
			return nil
		}
		c.recovered(fmt.Errorf("%w: %v", ErrMusicMix, err))
		return nil
	}
	h, err := c.scope.Open(ctx, path)
	if err != nil {
		c.recovered(fmt.Errorf("%w: %s: %v", ErrMusicMix, filepath.Base(path), err))
		return nil
	}
	if _, ok := h.Info.Audio(); !ok {
		c.recovered(fmt.Errorf("%w: %s has no audio stream", ErrMusicMix, filepath.Base(path)))
		return nil
	}
	return h
}

// cosmetics draws the brightness offset and saturation factor.
func (c *composition) cosmetics(randomize bool) (float64, float64) {
	if !randomize {
		return 0, 1
	}
	jitter := c.engine.cfg.Randomization
	brightness := (c.rng.Float64()*2 - 1) * jitter.BrightnessJitter
	saturation := 1 + (c.rng.Float64()*2-1)*jitter.SaturationJitter
	return brightness, saturation
}

func (c *composition) recovered(err error) {
	c.logger.Warn("recovered from failure", slog.Any("error", err))
	c.outcome.Recovered = append(c.outcome.Recovered, err)
}

func (e *Engine) record(ctx context.Context, o Outcome, res sidecar.Result) {
	if e.history == nil {
		return
	}
	entry := history.Entry{
		RunID:            o.RunID,
		State:            o.State.String(),
		Reason:           o.Reason,
		AudioSource:      o.Request.AudioPath,
		OutputPath:       o.OutputPath,
		BackgroundSource: res.BackgroundSource,
		MusicSource:      res.MusicSource,
		DurationSeconds:  res.Duration,
		CaptionCount:     res.CaptionCount,
		Transcriber:      res.Transcriber,
		Seed:             o.Seed,
		Title:            o.Request.Title,
		CreatedAt:        e.now(),
	}
	if err := e.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		e.logger.Warn("failed to record history", slog.String("run_id", o.RunID), slog.Any("error", err))
	}
}

// classify maps a media open failure onto kind unless the context ended.
func classify(ctx context.Context, kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func extensionsOr(exts, def []string) []string {
	if len(exts) == 0 {
		return def
	}
	return exts
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
