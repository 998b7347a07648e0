package tools

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"shortsmith/internal/config"
	"shortsmith/internal/runner"
)

func fakeVersions(outputs map[string]string) runner.Func {
	return func(_ context.Context, command string, _ []string, _ runner.RunOptions) (runner.RunResult, error) {
		out, ok := outputs[command]
		if !ok {
			return runner.RunResult{}, errors.New("exit status 1")
		}
		return runner.RunResult{Stdout: []byte(out)}, nil
	}
}

func TestCheckReportsVersions(t *testing.T) {
	checker := Checker{
		Runner: fakeVersions(map[string]string{
			"/usr/bin/ffmpeg":  "ffmpeg version 7.1.1-static https://johnvansickle.com/ffmpeg/\nbuilt with gcc 8",
			"/usr/bin/ffprobe": "ffprobe version 5.1.2 Copyright (c) 2007-2022",
		}),
		LookPath: func(name string) (string, error) {
			if name == "uvx" {
				return "", exec.ErrNotFound
			}
			return "/usr/bin/" + name, nil
		},
	}

	infos := checker.Check(context.Background(), Requirements(config.Default()))
	if len(infos) != 3 {
		t.Fatalf("infos = %+v", infos)
	}

	ffmpeg := infos[0]
	if !ffmpeg.Available || !ffmpeg.Satisfied || ffmpeg.Version != "7.1.1" {
		t.Fatalf("ffmpeg = %+v", ffmpeg)
	}
	ffprobe := infos[1]
	if ffprobe.Satisfied || ffprobe.Version != "5.1.2" || ffprobe.Error == "" {
		t.Fatalf("ffprobe should be below minimum: %+v", ffprobe)
	}
	uvx := infos[2]
	if uvx.Available || uvx.Required || uvx.Error != "not found" || len(uvx.Hints) == 0 {
		t.Fatalf("uvx = %+v", uvx)
	}

	missing := Missing(infos)
	if len(missing) != 1 || missing[0].Name != "ffprobe" {
		t.Fatalf("missing = %+v", missing)
	}
}

func TestNormalizeVersionLine(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
	}{
		{"ffmpeg", "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023", "6.1.1"},
		{"ffprobe", "ffprobe version n7.0 Copyright", "7.0"},
		{"uvx", "uvx 0.6.14 (a4cec56dc 2025-04-09)", "0.6.14"},
		{"other", "tool v2.3", "2.3"},
	}
	for _, tc := range cases {
		if got := normalizeVersionLine(tc.name, tc.line); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestMeetsMinimum(t *testing.T) {
	cases := []struct {
		version string
		minimum string
		want    bool
	}{
		{"6.0", "6.0", true},
		{"7", "6.0", true},
		{"5.9.9", "6.0", false},
		{"", "6.0", false},
		{"anything", "", true},
	}
	for _, tc := range cases {
		if got := meetsMinimum(tc.version, tc.minimum); got != tc.want {
			t.Fatalf("meetsMinimum(%q, %q) = %v", tc.version, tc.minimum, got)
		}
	}
}
