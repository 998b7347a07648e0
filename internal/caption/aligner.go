// Package caption converts transcriber output into ordered caption units.
package caption

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"shortsmith/internal/config"
	"shortsmith/internal/transcribe"
)

// DefaultPlaceholder is shown for the whole narration when no timing exists.
const DefaultPlaceholder = "..."

// Unit is one caption: text visible from Start to End seconds.
type Unit struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Aligner asks a transcriber for timing exactly once per composition.
type Aligner struct {
	Transcriber transcribe.Transcriber
	Granularity string
	Placeholder string
	Logger      *slog.Logger
}

// Align returns caption units sorted by start time. Units with empty text or
// a non-positive span are dropped. When the transcriber is missing, fails, or
// yields nothing usable, the result is a single placeholder unit covering
// [0, audioDuration].
func (a Aligner) Align(ctx context.Context, audioPath string, audioDuration float64) []Unit {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if a.Transcriber == nil {
		logger.Warn("no transcriber configured; using placeholder caption")
		return a.fallback(audioDuration)
	}

	segments, err := a.transcribe(ctx, audioPath)
	if err != nil {
		logger.Warn("transcription failed; using placeholder caption",
			slog.String("transcriber", a.Transcriber.Name()),
			slog.Any("error", err),
		)
		return a.fallback(audioDuration)
	}

	units := FromSegments(segments, a.Granularity)
	if len(units) == 0 {
		logger.Warn("transcription produced no captions; using placeholder caption",
			slog.String("transcriber", a.Transcriber.Name()),
		)
		return a.fallback(audioDuration)
	}
	logger.Debug("captions aligned", slog.Int("units", len(units)), slog.String("granularity", a.granularity()))
	return units
}

// transcribe runs the transcriber once, turning a panic into an error so the
// placeholder fallback still applies.
func (a Aligner) transcribe(ctx context.Context, audioPath string) (segments []transcribe.Segment, err error) {
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("transcriber panic: %v", r)
		}
	}()
	return a.Transcriber.Transcribe(ctx, audioPath)
}

// FromSegments maps segments (or their words) to cleaned, ordered units.
func FromSegments(segments []transcribe.Segment, granularity string) []Unit {
	word := strings.EqualFold(strings.TrimSpace(granularity), config.GranularityWord)

	var units []Unit
	add := func(text string, start, end float64) {
		text = cleanText(text)
		if text == "" || end <= start {
			return
		}
		units = append(units, Unit{Text: text, Start: start, End: end})
	}

	for _, seg := range segments {
		if word && len(seg.Words) > 0 {
			for _, w := range seg.Words {
				add(w.Word, w.Start, w.End)
			}
			continue
		}
		add(seg.Text, seg.Start, seg.End)
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].Start < units[j].Start
	})
	return units
}

func (a Aligner) fallback(audioDuration float64) []Unit {
	text := strings.TrimSpace(a.Placeholder)
	if text == "" {
		text = DefaultPlaceholder
	}
	if audioDuration < 0 {
		audioDuration = 0
	}
	return []Unit{{Text: text, Start: 0, End: audioDuration}}
}

func (a Aligner) granularity() string {
	if strings.EqualFold(a.Granularity, config.GranularityWord) {
		return config.GranularityWord
	}
	return config.GranularitySegment
}

func cleanText(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}
