// Package overlay turns caption units into timed, styled text overlays.
package overlay

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shortsmith/internal/caption"
	"shortsmith/internal/render"
)

// ErrOverlayRender marks a caption unit that could not be turned into an
// overlay. The unit is skipped; the composition continues.
var ErrOverlayRender = errors.New("overlay render failed")

// Layout is the frame the overlays are drawn on.
type Layout struct {
	Width     int
	Height    int
	BoxWidth  int
	Transform string
}

// Overlay is one styled caption visible during [Start, End].
type Overlay struct {
	Text  string
	Start float64
	End   float64
	Style Style
}

// DrawText renders the overlay as a centered ffmpeg drawtext filter.
func (o Overlay) DrawText() string {
	return render.DrawText(render.DrawTextOptions{
		Text:         o.Text,
		Start:        o.Start,
		End:          o.End,
		Font:         o.Style.Font,
		FontFile:     o.Style.FontFile,
		FontSize:     o.Style.Size,
		FontColor:    o.Style.Color,
		OutlineColor: o.Style.OutlineColor,
		OutlineWidth: o.Style.OutlineWidth,
		LineSpacing:  o.Style.Size / 6,
		XExpr:        "(w-text_w)/2",
		YExpr:        "(h-text_h)/2",
	})
}

// Render clips every unit to [0, videoDuration], applies the layout's text
// transform and wraps it to the caption box. Units that cannot be rendered are
// skipped and reported as ErrOverlayRender. Overlays are sorted by start.
func Render(units []caption.Unit, videoDuration float64, style Style, layout Layout) ([]Overlay, []error) {
	var (
		overlays []Overlay
		errs     []error
	)
	for i, unit := range units {
		start := render.Clamp(unit.Start, 0, videoDuration)
		end := render.Clamp(unit.End, 0, videoDuration)
		if end <= start {
			continue
		}
		text, err := prepareText(unit.Text, layout.Transform)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: unit %d: %v", ErrOverlayRender, i, err))
			continue
		}
		if text == "" {
			continue
		}
		overlays = append(overlays, Overlay{
			Text:  Wrap(text, maxColumns(layout.BoxWidth, style.Size)),
			Start: start,
			End:   end,
			Style: style,
		})
	}
	sort.SliceStable(overlays, func(i, j int) bool {
		return overlays[i].Start < overlays[j].Start
	})
	return overlays, errs
}

// Filters renders the drawtext chain for overlays.
func Filters(overlays []Overlay) []string {
	filters := make([]string, 0, len(overlays))
	for _, o := range overlays {
		if f := o.DrawText(); f != "" {
			filters = append(filters, f)
		}
	}
	return filters
}

func prepareText(text, transform string) (string, error) {
	if !utf8.ValidString(text) {
		return "", errors.New("invalid UTF-8")
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("unprintable character %U", r)
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	return applyTextTransform(text, transform), nil
}

func applyTextTransform(value, transform string) string {
	switch strings.ToLower(strings.TrimSpace(transform)) {
	case "upper", "uppercase":
		return cases.Upper(language.Und).String(value)
	case "lower", "lowercase":
		return cases.Lower(language.Und).String(value)
	case "title":
		return cases.Title(language.Und).String(value)
	default:
		return value
	}
}

// maxColumns estimates how many display columns fit in boxWidth pixels at
// fontSize; an average glyph is a little over half the font size wide.
func maxColumns(boxWidth, fontSize int) int {
	if boxWidth <= 0 {
		boxWidth = 1000
	}
	if fontSize <= 0 {
		fontSize = 60
	}
	cols := int(float64(boxWidth) / (float64(fontSize) * 0.55))
	return max(cols, 8)
}

// Wrap breaks text on spaces so no line exceeds maxCols display columns.
// A single word wider than maxCols keeps a line of its own.
func Wrap(text string, maxCols int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var (
		lines   []string
		current strings.Builder
		width   int
	)
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if width > 0 && width+1+w > maxCols {
			lines = append(lines, current.String())
			current.Reset()
			width = 0
		}
		if width > 0 {
			current.WriteByte(' ')
			width++
		}
		current.WriteString(word)
		width += w
	}
	lines = append(lines, current.String())
	return strings.Join(lines, "\n")
}
