package render

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"shortsmith/internal/config"
)

// DrawTextOptions describes one timed drawtext overlay.
type DrawTextOptions struct {
	Text         string
	Start        float64
	End          float64
	Font         string
	FontFile     string
	FontSize     int
	FontColor    string
	OutlineColor string
	OutlineWidth int
	LineSpacing  int
	XExpr        string
	YExpr        string
}

// DrawText renders a drawtext filter visible only while start <= t <= end.
// It returns an empty string for an empty interval.
func DrawText(opts DrawTextOptions) string {
	duration := opts.End - opts.Start
	if duration <= 0 {
		return ""
	}

	outlineWidth := opts.OutlineWidth
	if outlineWidth < 0 {
		outlineWidth = 0
	}

	values := []string{
		fmt.Sprintf("text='%s'", EscapeDrawText(opts.Text)),
		"expansion=none",
		fmt.Sprintf("fontsize=%d", max(opts.FontSize, 12)),
		fmt.Sprintf("fontcolor=%s", Fallback(opts.FontColor, "white")),
		fmt.Sprintf("bordercolor=%s", Fallback(opts.OutlineColor, "black")),
		fmt.Sprintf("borderw=%d", outlineWidth),
		fmt.Sprintf("x=%s", Fallback(opts.XExpr, "(w-text_w)/2")),
		fmt.Sprintf("y=%s", Fallback(opts.YExpr, "(h-text_h)/2")),
	}

	if opts.LineSpacing != 0 {
		values = append(values, fmt.Sprintf("line_spacing=%d", opts.LineSpacing))
	}

	if strings.TrimSpace(opts.FontFile) != "" {
		values = append(values, fmt.Sprintf("fontfile='%s'", EscapeFFmpegPath(opts.FontFile)))
	} else if strings.TrimSpace(opts.Font) != "" {
		values = append(values, fmt.Sprintf("font='%s'", EscapeFilterValue(opts.Font)))
	}

	enable := fmt.Sprintf("between(t,%s,%s)", FormatFloat(opts.Start), FormatFloat(opts.End))
	values = append(values, fmt.Sprintf("enable='%s'", EscapeFilterValue(enable)))

	return "drawtext=" + strings.Join(values, ":")
}

// EqFilter renders a brightness/saturation adjustment. Neutral values yield
// an empty string.
func EqFilter(brightness, saturation float64) string {
	if math.Abs(brightness) < 1e-6 && math.Abs(saturation-1) < 1e-6 {
		return ""
	}
	if saturation <= 0 {
		saturation = 1
	}
	return fmt.Sprintf("eq=brightness=%s:saturation=%s", FormatFloat(round4(brightness)), FormatFloat(round4(saturation)))
}

// BuildEncodeArgs assembles the ffmpeg arguments that burn the filter chain
// onto the normalized video, attach the mixed audio and write outputPath.
func BuildEncodeArgs(job Job, outputPath string, video config.VideoConfig, audio config.AudioConfig) ([]string, error) {
	if strings.TrimSpace(job.Video) == "" {
		return nil, errors.New("video input is empty")
	}
	if strings.TrimSpace(job.Audio) == "" {
		return nil, errors.New("audio input is empty")
	}
	if strings.TrimSpace(outputPath) == "" {
		return nil, errors.New("output path is empty")
	}
	if job.Duration <= 0 {
		return nil, errors.New("duration must be positive")
	}

	args := []string{
		"-hide_banner",
		"-y",
		"-i", job.Video,
		"-i", job.Audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", FormatFloat(job.Duration),
	}

	var filters []string
	for _, f := range job.Filters {
		if strings.TrimSpace(f) != "" {
			filters = append(filters, f)
		}
	}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}

	videoCodec := strings.TrimSpace(video.Codec)
	if videoCodec == "" {
		videoCodec = "libx264"
	}
	args = append(args, "-c:v", videoCodec)

	if preset := strings.TrimSpace(video.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	if video.CRF >= 0 {
		args = append(args, "-crf", strconv.Itoa(video.CRF))
	}
	args = append(args, "-pix_fmt", "yuv420p")
	if video.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(video.FPS))
	}

	if acodec := strings.TrimSpace(audio.ACodec); acodec != "" {
		args = append(args, "-c:a", acodec)
	}
	if audio.BitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", audio.BitrateKbps))
	}
	if audio.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(audio.SampleRate))
	}
	if audio.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(audio.Channels))
	}

	args = append(args,
		"-movflags", "+faststart",
		outputPath,
	)
	return args, nil
}

// FormatFloat renders value without trailing zeros.
func FormatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Clamp bounds value to [minVal, maxVal].
func Clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(maxVal, value))
}

// Fallback returns def when value is blank.
func Fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// EscapeDrawText prepares text for a single-quoted drawtext value.
func EscapeDrawText(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")

	const newlinePlaceholder = "\u0000"
	value = strings.ReplaceAll(value, "\n", newlinePlaceholder)

	value = escapeFilterValueNoQuotes(value)
	value = strings.ReplaceAll(value, newlinePlaceholder, "\n")
	value = strings.ReplaceAll(value, "'", `'\''`)
	return value
}

// EscapeFFmpegPath escapes a filesystem path used inside a filter option.
func EscapeFFmpegPath(value string) string {
	value = filepath.Clean(value)
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, ":", `\:`)
	value = strings.ReplaceAll(value, "'", `\'`)
	return value
}

// EscapeFilterValue escapes separators inside a quoted filter option.
func EscapeFilterValue(value string) string {
	value = escapeFilterValueNoQuotes(value)
	value = strings.ReplaceAll(value, "'", `\'`)
	return value
}

func escapeFilterValueNoQuotes(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, ":", `\:`)
	value = strings.ReplaceAll(value, ",", `\,`)
	return value
}
