package overlay

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"shortsmith/internal/caption"
	"shortsmith/internal/config"
)

func testLayout() Layout {
	return Layout{Width: 1080, Height: 1920, BoxWidth: 1000}
}

func TestRenderClipsToVideoDuration(t *testing.T) {
	units := []caption.Unit{
		{Text: "late", Start: 11, End: 14},
		{Text: "early", Start: -1, End: 2},
		{Text: "gone", Start: 12, End: 15},
	}
	style := StylePicker{Config: config.Default().Style}.Default()

	overlays, errs := Render(units, 12, style, testLayout())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(overlays) != 2 {
		t.Fatalf("overlays = %+v", overlays)
	}
	if overlays[0].Text != "early" || overlays[0].Start != 0 || overlays[0].End != 2 {
		t.Fatalf("first overlay = %+v", overlays[0])
	}
	if overlays[1].Text != "late" || overlays[1].End != 12 {
		t.Fatalf("second overlay = %+v", overlays[1])
	}
	for _, o := range overlays {
		if o.Start < 0 || o.End > 12 || o.End <= o.Start {
			t.Fatalf("overlay outside video: %+v", o)
		}
	}
}

func TestRenderSkipsBadUnits(t *testing.T) {
	units := []caption.Unit{
		{Text: "ok", Start: 0, End: 1},
		{Text: string([]byte{0xff, 0xfe}), Start: 1, End: 2},
		{Text: "bell\x07", Start: 2, End: 3},
		{Text: "fine", Start: 3, End: 4},
	}
	overlays, errs := Render(units, 10, Style{Size: 60}, testLayout())
	if len(overlays) != 2 {
		t.Fatalf("overlays = %+v", overlays)
	}
	if len(errs) != 2 {
		t.Fatalf("errs = %v", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrOverlayRender) {
			t.Fatalf("expected ErrOverlayRender, got %v", err)
		}
	}
}

func TestRenderTransforms(t *testing.T) {
	units := []caption.Unit{{Text: "hello world", Start: 0, End: 1}}
	cases := map[string]string{
		"upper": "HELLO WORLD",
		"title": "Hello World",
		"none":  "hello world",
		"lower": "hello world",
	}
	for transform, want := range cases {
		layout := testLayout()
		layout.Transform = transform
		overlays, _ := Render(units, 5, Style{Size: 60}, layout)
		if overlays[0].Text != want {
			t.Fatalf("%s: text = %q, want %q", transform, overlays[0].Text, want)
		}
	}
}

func TestWrapRespectsColumns(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog again and again"
	wrapped := Wrap(text, 16)
	for _, line := range strings.Split(wrapped, "\n") {
		if runewidth.StringWidth(line) > 16 {
			t.Fatalf("line %q exceeds 16 columns", line)
		}
	}
	if strings.ReplaceAll(wrapped, "\n", " ") != text {
		t.Fatalf("wrap changed words: %q", wrapped)
	}
}

func TestWrapCountsWideRunes(t *testing.T) {
	wrapped := Wrap("日本語 日本語", 8)
	if wrapped != "日本語\n日本語" {
		t.Fatalf("wrapped = %q", wrapped)
	}
}

func TestOverlayDrawTextCentered(t *testing.T) {
	o := Overlay{Text: "hi", Start: 1, End: 2, Style: Style{Font: "Arial", Color: "yellow", Size: 60, OutlineColor: "black", OutlineWidth: 2}}
	filter := o.DrawText()
	for _, want := range []string{"x=(w-text_w)/2", "y=(h-text_h)/2", "fontcolor=yellow", "borderw=2", "enable='between(t\\,1\\,2)'"} {
		if !strings.Contains(filter, want) {
			t.Fatalf("filter missing %q: %s", want, filter)
		}
	}
	if got := Filters([]Overlay{o, {Text: "x", Start: 3, End: 3}}); len(got) != 1 {
		t.Fatalf("filters = %v", got)
	}
}

func TestStylePickerDefault(t *testing.T) {
	style := StylePicker{Config: config.Default().Style}.Pick(rand.New(rand.NewPCG(1, 1)), false)
	want := Style{Font: "Arial", Color: "yellow", Size: 60, OutlineColor: "black", OutlineWidth: 2}
	if style != want {
		t.Fatalf("style = %+v, want %+v", style, want)
	}
}

func TestStylePickerRandomWithinBounds(t *testing.T) {
	cfg := config.Default().Style
	picker := StylePicker{Config: cfg}
	rng := rand.New(rand.NewPCG(5, 8))

	fonts := map[string]bool{}
	for i := 0; i < 500; i++ {
		style := picker.Pick(rng, true)
		if style.Size < 50 || style.Size > 70 {
			t.Fatalf("size %d outside 60+/-10", style.Size)
		}
		if !contains(cfg.Fonts, style.Font) || !contains(cfg.Colors, style.Color) {
			t.Fatalf("style %+v outside configured sets", style)
		}
		fonts[style.Font] = true
	}
	if len(fonts) != len(cfg.Fonts) {
		t.Fatalf("not every font sampled: %v", fonts)
	}
}

func TestStylePickerFloorsSize(t *testing.T) {
	cfg := config.Default().Style
	cfg.BaseSize = 32
	cfg.SizeJitter = 10
	picker := StylePicker{Config: cfg}
	rng := rand.New(rand.NewPCG(2, 3))
	for i := 0; i < 200; i++ {
		if size := picker.Pick(rng, true).Size; size < 30 {
			t.Fatalf("size %d below floor", size)
		}
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
