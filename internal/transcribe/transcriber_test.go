package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortsmith/internal/config"
	"shortsmith/internal/runner"
	"shortsmith/internal/testsupport"
)

const sampleJSON = `{"segments":[
 {"text":" Hello there.","start":0.1,"end":1.4,"words":[{"word":"Hello","start":0.1,"end":0.6},{"word":"there.","start":0.7,"end":1.4}]},
 {"text":" General Kenobi.","start":1.6,"end":3.0,"words":[]}
]}`

func TestNewFallsBackToNull(t *testing.T) {
	captions := config.Default().Captions

	missing := func(string) (string, error) { return "", errors.New("not found") }
	if _, ok := New(Options{Captions: captions, LookPath: missing}).(Null); !ok {
		t.Fatal("expected Null when uvx is missing")
	}

	captions.Engine = config.EngineNone
	found := func(name string) (string, error) { return "/usr/bin/" + name, nil }
	if _, ok := New(Options{Captions: captions, LookPath: found}).(Null); !ok {
		t.Fatal("expected Null when engine is disabled")
	}
}

func TestNewResolvesWhisperX(t *testing.T) {
	found := func(name string) (string, error) { return "/opt/bin/" + name, nil }
	tr := New(Options{Captions: config.Default().Captions, LookPath: found})
	wx, ok := tr.(*WhisperX)
	if !ok {
		t.Fatalf("expected WhisperX, got %T", tr)
	}
	if wx.UVX != "/opt/bin/uvx" || wx.Name() != "whisperx:medium" {
		t.Fatalf("unexpected transcriber %+v (%s)", wx, wx.Name())
	}
}

func TestNullTranscriberUnavailable(t *testing.T) {
	if _, err := (Null{}).Transcribe(context.Background(), "a.mp3"); !errors.Is(err, ErrTranscriptionUnavailable) {
		t.Fatalf("expected ErrTranscriptionUnavailable, got %v", err)
	}
}

func TestWhisperXTranscribeLoadsSegments(t *testing.T) {
	work := t.TempDir()
	var seenOutputDir string
	var seenEnv []string
	fake := runner.Func(func(_ context.Context, command string, args []string, opts runner.RunOptions) (runner.RunResult, error) {
		if command != "uvx" {
			t.Fatalf("unexpected command %s", command)
		}
		out, ok := testsupport.FlagValue(args, "--output_dir")
		if !ok {
			t.Fatal("missing --output_dir")
		}
		seenOutputDir = out
		seenEnv = opts.Env
		return runner.RunResult{}, os.WriteFile(filepath.Join(out, "story.json"), []byte(sampleJSON), 0o644)
	})

	wx := &WhisperX{Runner: fake, WorkDir: work, Language: "en"}
	segments, err := wx.Transcribe(context.Background(), "/audio/story.mp3")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 || len(segments[0].Words) != 2 {
		t.Fatalf("segments = %+v", segments)
	}
	if segments[1].Text != " General Kenobi." {
		t.Fatalf("text = %q", segments[1].Text)
	}
	if _, err := os.Stat(seenOutputDir); !os.IsNotExist(err) {
		t.Fatalf("scratch dir %s not removed (err=%v)", seenOutputDir, err)
	}
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" && len(seenEnv) != 1 {
		t.Fatalf("expected torch env override, got %v", seenEnv)
	}
}

func TestWhisperXFailureIsUnavailable(t *testing.T) {
	fake := runner.Func(func(context.Context, string, []string, runner.RunOptions) (runner.RunResult, error) {
		return runner.RunResult{Stderr: []byte("CUDA out of memory")}, errors.New("exit status 1")
	})
	wx := &WhisperX{Runner: fake, WorkDir: t.TempDir()}
	_, err := wx.Transcribe(context.Background(), "/audio/story.mp3")
	if !errors.Is(err, ErrTranscriptionUnavailable) {
		t.Fatalf("expected ErrTranscriptionUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}

func TestWhisperXArgs(t *testing.T) {
	wx := &WhisperX{Model: "small", HFToken: "hf_x", Language: "en"}
	args := strings.Join(wx.buildArgs("/a.mp3", "/out"), " ")
	for _, want := range []string{
		"whisperx /a.mp3",
		"--model small",
		"--output_dir /out",
		"--output_format json",
		"--vad_method pyannote --hf_token hf_x",
		"--language en",
		"--device cpu --compute_type float32",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("args missing %q: %s", want, args)
		}
	}
}
