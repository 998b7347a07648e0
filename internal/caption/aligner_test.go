package caption

import (
	"context"
	"testing"

	"shortsmith/internal/transcribe"
)

type stubTranscriber struct {
	segments []transcribe.Segment
	err      error
	calls    int
}

func (s *stubTranscriber) Transcribe(context.Context, string) ([]transcribe.Segment, error) {
	s.calls++
	return s.segments, s.err
}

func (s *stubTranscriber) Name() string { return "stub" }

type panickingTranscriber struct{}

func (panickingTranscriber) Transcribe(context.Context, string) ([]transcribe.Segment, error) {
	panic("model load crashed")
}

func (panickingTranscriber) Name() string { return "panicking" }

func TestAlignSegments(t *testing.T) {
	stub := &stubTranscriber{segments: []transcribe.Segment{
		{Text: " second line ", Start: 2, End: 3.5},
		{Text: "first\n line", Start: 0.2, End: 1.8},
		{Text: "   ", Start: 4, End: 5},
		{Text: "backwards", Start: 6, End: 6},
	}}

	units := Aligner{Transcriber: stub, Granularity: "segment"}.Align(context.Background(), "a.mp3", 10)
	if stub.calls != 1 {
		t.Fatalf("transcriber called %d times, want 1", stub.calls)
	}
	want := []Unit{
		{Text: "first line", Start: 0.2, End: 1.8},
		{Text: "second line", Start: 2, End: 3.5},
	}
	if len(units) != len(want) {
		t.Fatalf("units = %+v", units)
	}
	for i := range want {
		if units[i] != want[i] {
			t.Fatalf("units[%d] = %+v, want %+v", i, units[i], want[i])
		}
	}
}

func TestAlignWordGranularity(t *testing.T) {
	stub := &stubTranscriber{segments: []transcribe.Segment{
		{Text: "Hello there", Start: 0, End: 1, Words: []transcribe.Word{
			{Word: "Hello", Start: 0, End: 0.4},
			{Word: "there", Start: 0.5, End: 1},
		}},
		{Text: "no words", Start: 1.2, End: 2},
	}}

	units := Aligner{Transcriber: stub, Granularity: "word"}.Align(context.Background(), "a.mp3", 5)
	if len(units) != 3 {
		t.Fatalf("units = %+v", units)
	}
	if units[0].Text != "Hello" || units[1].Text != "there" || units[2].Text != "no words" {
		t.Fatalf("units = %+v", units)
	}
}

func TestAlignNormalizesUnicode(t *testing.T) {
	stub := &stubTranscriber{segments: []transcribe.Segment{
		{Text: "Cafe\u0301", Start: 0, End: 1},
	}}
	units := Aligner{Transcriber: stub}.Align(context.Background(), "a.mp3", 1)
	if units[0].Text != "Caf\u00e9" {
		t.Fatalf("text = %q, want NFC form", units[0].Text)
	}
}

func TestAlignFallsBackOnFailure(t *testing.T) {
	stub := &stubTranscriber{err: transcribe.ErrTranscriptionUnavailable}
	units := Aligner{Transcriber: stub}.Align(context.Background(), "a.mp3", 8.5)
	if len(units) != 1 || units[0] != (Unit{Text: "...", Start: 0, End: 8.5}) {
		t.Fatalf("units = %+v", units)
	}
	if stub.calls != 1 {
		t.Fatalf("transcriber retried: %d calls", stub.calls)
	}
}

func TestAlignFallsBackOnEmptyResult(t *testing.T) {
	stub := &stubTranscriber{segments: []transcribe.Segment{{Text: "", Start: 0, End: 1}}}
	units := Aligner{Transcriber: stub, Placeholder: "…listen…"}.Align(context.Background(), "a.mp3", 4)
	if len(units) != 1 || units[0].Text != "…listen…" || units[0].End != 4 {
		t.Fatalf("units = %+v", units)
	}
}

func TestAlignWithoutTranscriber(t *testing.T) {
	units := Aligner{}.Align(context.Background(), "a.mp3", 3)
	if len(units) != 1 || units[0].Text != DefaultPlaceholder {
		t.Fatalf("units = %+v", units)
	}
}

func TestAlignWithNullTranscriber(t *testing.T) {
	units := Aligner{Transcriber: transcribe.Null{}}.Align(context.Background(), "a.mp3", 3)
	if len(units) != 1 || units[0].End != 3 {
		t.Fatalf("units = %+v", units)
	}
}

func TestAlignFallsBackOnPanic(t *testing.T) {
	units := Aligner{Transcriber: panickingTranscriber{}}.Align(context.Background(), "a.mp3", 12)
	if len(units) != 1 || units[0] != (Unit{Text: "...", Start: 0, End: 12}) {
		t.Fatalf("units = %+v, want single placeholder", units)
	}
}
