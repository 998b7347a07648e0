// Package testsupport provides fakes shared by package tests.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"shortsmith/internal/probe"
	"shortsmith/internal/runner"
)

// Call records a single subprocess invocation.
type Call struct {
	Command string
	Args    []string
}

// MediaRunner imitates ffprobe and ffmpeg. ffprobe answers from registered
// Info values; ffmpeg writes a small file at its output path and registers a
// plausible Info for it so later probes succeed.
type MediaRunner struct {
	mu    sync.Mutex
	media map[string]probe.Info
	calls []Call

	// FFmpegHook may return an error to simulate an ffmpeg failure. The output
	// file is left untouched when the hook fails.
	FFmpegHook func(args []string) error
}

// NewMediaRunner returns an empty fake.
func NewMediaRunner() *MediaRunner {
	return &MediaRunner{media: map[string]probe.Info{}}
}

// AddVideo writes a placeholder file at path and registers a video of the
// given geometry and duration.
func (m *MediaRunner) AddVideo(t testing.TB, path string, width, height int, duration float64) {
	t.Helper()
	WriteFile(t, path, 64)
	m.Register(path, VideoInfo(path, width, height, duration))
}

// AddAudio writes a placeholder file at path and registers an audio-only stream.
func (m *MediaRunner) AddAudio(t testing.TB, path string, duration float64) {
	t.Helper()
	WriteFile(t, path, 64)
	m.Register(path, AudioInfo(path, duration))
}

// Register stores the Info returned for path.
func (m *MediaRunner) Register(path string, info probe.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[path] = info
}

// Calls returns a copy of all recorded invocations.
func (m *MediaRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded invocations of the named command.
func (m *MediaRunner) CallsTo(command string) []Call {
	var out []Call
	for _, call := range m.Calls() {
		if filepath.Base(call.Command) == command {
			out = append(out, call)
		}
	}
	return out
}

// Run implements runner.Runner.
func (m *MediaRunner) Run(_ context.Context, command string, args []string, _ runner.RunOptions) (runner.RunResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Command: command, Args: append([]string(nil), args...)})
	m.mu.Unlock()

	switch filepath.Base(command) {
	case "ffprobe":
		return m.probe(args)
	case "ffmpeg":
		return m.ffmpeg(args)
	default:
		return runner.RunResult{}, fmt.Errorf("unexpected command %q", command)
	}
}

func (m *MediaRunner) probe(args []string) (runner.RunResult, error) {
	if len(args) == 0 {
		return runner.RunResult{}, errors.New("ffprobe: no input")
	}
	path := args[len(args)-1]
	m.mu.Lock()
	info, ok := m.media[path]
	m.mu.Unlock()
	if !ok {
		return runner.RunResult{Stderr: []byte(path + ": Invalid data found when processing input")}, errors.New("exit status 1")
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return runner.RunResult{}, err
	}
	return runner.RunResult{Stdout: payload}, nil
}

func (m *MediaRunner) ffmpeg(args []string) (runner.RunResult, error) {
	if m.FFmpegHook != nil {
		if err := m.FFmpegHook(args); err != nil {
			return runner.RunResult{Stderr: []byte(err.Error())}, err
		}
	}
	if len(args) == 0 {
		return runner.RunResult{}, errors.New("ffmpeg: no output")
	}
	out := args[len(args)-1]
	for _, input := range InputsOf(args) {
		m.mu.Lock()
		_, ok := m.media[input]
		m.mu.Unlock()
		if !ok {
			return runner.RunResult{Stderr: []byte(input + ": Invalid data found when processing input")}, errors.New("exit status 1")
		}
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return runner.RunResult{}, err
	}
	if err := os.WriteFile(out, []byte("fake media"), 0o644); err != nil {
		return runner.RunResult{}, err
	}

	duration := lastFloatFlag(args, "-t")
	switch strings.ToLower(filepath.Ext(out)) {
	case ".m4a", ".wav", ".mp3", ".aac":
		m.Register(out, AudioInfo(out, duration))
	default:
		info := VideoInfo(out, 1080, 1920, duration)
		if containsArg(args, "-an") {
			info.Streams = info.Streams[:1]
		}
		m.Register(out, info)
	}
	return runner.RunResult{}, nil
}

// InputsOf returns the values of every -i flag.
func InputsOf(args []string) []string {
	var inputs []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-i" {
			inputs = append(inputs, args[i+1])
		}
	}
	return inputs
}

// FlagValue returns the value following the first occurrence of flag.
func FlagValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func lastFloatFlag(args []string, flag string) float64 {
	value := 0.0
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			if v, err := strconv.ParseFloat(args[i+1], 64); err == nil {
				value = v
			}
		}
	}
	return value
}

func containsArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

// VideoInfo builds an Info with one video and one audio stream.
func VideoInfo(path string, width, height int, duration float64) probe.Info {
	d := strconv.FormatFloat(duration, 'f', -1, 64)
	return probe.Info{
		Path: path,
		Streams: []probe.Stream{
			{Index: 0, CodecName: "h264", CodecType: "video", Width: width, Height: height, Duration: d, AvgFrameRate: "30/1"},
			{Index: 1, CodecName: "aac", CodecType: "audio", Duration: d, SampleRate: "48000", Channels: 2},
		},
		Format: probe.Format{Filename: path, FormatName: "mov,mp4,m4a,3gp,3g2,mj2", Duration: d},
	}
}

// AudioInfo builds an Info with a single audio stream.
func AudioInfo(path string, duration float64) probe.Info {
	d := strconv.FormatFloat(duration, 'f', -1, 64)
	return probe.Info{
		Path: path,
		Streams: []probe.Stream{
			{Index: 0, CodecName: "mp3", CodecType: "audio", Duration: d, SampleRate: "24000", Channels: 1},
		},
		Format: probe.Format{Filename: path, FormatName: "mp3", Duration: d},
	}
}

var _ runner.Runner = (*MediaRunner)(nil)
