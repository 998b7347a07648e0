package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortsmith/internal/compose"
	"shortsmith/internal/sidecar"
)

func TestBuildRequests(t *testing.T) {
	seed := uint64(41)
	requests, err := buildRequests(composeFlags{
		Audio: []string{"a.mp3", " ", "/tmp/b.wav"},
		Title: "Daily",
		Seed:  &seed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(requests))
	}
	if !filepath.IsAbs(requests[0].AudioPath) {
		t.Fatalf("audio path %q not absolute", requests[0].AudioPath)
	}
	if *requests[0].Seed != 41 || *requests[1].Seed != 42 {
		t.Fatalf("seeds = %d, %d; want 41, 42", *requests[0].Seed, *requests[1].Seed)
	}
	if requests[1].Name() != "b" || requests[1].Title != "Daily" {
		t.Fatalf("unexpected second request %+v", requests[1])
	}
}

func TestBuildRequestsRejects(t *testing.T) {
	tests := []struct {
		name  string
		flags composeFlags
		want  string
	}{
		{"no audio", composeFlags{}, "no narration"},
		{"output with batch", composeFlags{Audio: []string{"a.mp3", "b.mp3"}, Output: "x"}, "single narration"},
		{"colliding names", composeFlags{Audio: []string{"one/story.mp3", "two/story.wav"}}, "would both write story.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildRequests(tt.flags)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestBuildRequestsWithoutSeedLeavesItUnset(t *testing.T) {
	requests, err := buildRequests(composeFlags{Audio: []string{"a.mp3"}, Output: "custom", Overwrite: true})
	if err != nil {
		t.Fatal(err)
	}
	if requests[0].Seed != nil {
		t.Fatalf("seed = %d, want nil", *requests[0].Seed)
	}
	if requests[0].Name() != "custom" || !requests[0].Overwrite {
		t.Fatalf("unexpected request %+v", requests[0])
	}
}

func sampleResults() []compose.BatchResult {
	return []compose.BatchResult{
		{Outcome: compose.Outcome{
			RunID:       "run-1",
			Request:     compose.Request{AudioPath: "/audio/one.mp3"},
			State:       compose.StateDone,
			Seed:        7,
			OutputPath:  "/shorts/one.mp4",
			SidecarPath: "/shorts/one.json",
			Result:      &sidecar.Result{BackgroundSource: "/bg/beach.mp4"},
			Recovered:   []error{compose.ErrMusicMix},
			Elapsed:     1500 * time.Millisecond,
		}},
		{Outcome: compose.Outcome{
			RunID:   "run-2",
			Request: compose.Request{AudioPath: "/audio/two.mp3"},
			State:   compose.StateFailed,
			Reason:  "no background available",
			Err:     compose.ErrNoBackgroundAvailable,
		}},
		{
			Outcome: compose.Outcome{RunID: "run-3", Request: compose.Request{AudioPath: "/audio/three.mp3"}, State: compose.StateFailed},
			Err:     errors.New("disk full"),
		},
	}
}

func TestRenderComposeResults(t *testing.T) {
	out := renderComposeResults(sampleResults())
	for _, want := range []string{"one.mp3", "done", "beach.mp4", "one.mp4 (no music)", "failed", "no background available", "error", "disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteComposeJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeComposeJSON(&buf, sampleResults()); err != nil {
		t.Fatal(err)
	}
	var got []composeJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
	if got[0].State != "done" || got[0].Output != "/shorts/one.mp4" || got[0].ElapsedMS != 1500 {
		t.Fatalf("first item = %+v", got[0])
	}
	if len(got[0].Recovered) != 1 {
		t.Fatalf("recovered = %v", got[0].Recovered)
	}
	if got[1].State != "failed" || got[1].Output != "" || got[1].Reason != "no background available" {
		t.Fatalf("second item = %+v", got[1])
	}
	if got[2].Error != "disk full" {
		t.Fatalf("third item = %+v", got[2])
	}
}

func TestBuildRequestsAppliesNameTemplate(t *testing.T) {
	requests, err := buildRequests(composeFlags{
		Audio:        []string{"story.mp3", "other.mp3"},
		NameTemplate: "$DATE_$INDEX_$SAFE_AUDIO",
		Now:          time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := requests[0].Name(); got != "20260504_01_story" {
		t.Fatalf("first name = %q", got)
	}
	if got := requests[1].Name(); got != "20260504_02_other" {
		t.Fatalf("second name = %q", got)
	}
}
