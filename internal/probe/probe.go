// Package probe decodes ffprobe JSON output into the small set of stream
// properties the composition pipeline needs.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shortsmith/internal/runner"
)

// ErrNoStreams is returned when ffprobe reports neither a video nor an audio stream.
var ErrNoStreams = errors.New("no decodable streams")

// Info is the parsed result of a single ffprobe inspection.
type Info struct {
	Path    string   `json:"path"`
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream in the container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// Inspect executes ffprobe against path and decodes the JSON response.
func Inspect(ctx context.Context, r runner.Runner, binary, path string) (Info, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	}
	result, err := runner.OrDefault(r).Run(ctx, binary, args, runner.RunOptions{})
	if err != nil {
		stderr := strings.TrimSpace(string(result.Stderr))
		if stderr != "" {
			return Info{}, fmt.Errorf("ffprobe inspect: %w: %s", err, stderr)
		}
		return Info{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(path, result.Stdout)
}

// Parse decodes raw ffprobe JSON. It fails when the payload carries no
// audio or video stream.
func Parse(path string, raw []byte) (Info, error) {
	if len(raw) == 0 {
		return Info{}, errors.New("ffprobe produced no output")
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return Info{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	info.Path = path
	if _, ok := info.Video(); !ok {
		if _, ok := info.Audio(); !ok {
			return Info{}, fmt.Errorf("ffprobe %s: %w", path, ErrNoStreams)
		}
	}
	return info, nil
}

// Video returns the first video stream.
func (i Info) Video() (Stream, bool) {
	return i.firstOfType("video")
}

// Audio returns the first audio stream.
func (i Info) Audio() (Stream, bool) {
	return i.firstOfType("audio")
}

func (i Info) firstOfType(kind string) (Stream, bool) {
	for _, stream := range i.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			return stream, true
		}
	}
	return Stream{}, false
}

// Dimensions returns the width and height of the first video stream.
func (i Info) Dimensions() (int, int) {
	v, ok := i.Video()
	if !ok {
		return 0, 0
	}
	return v.Width, v.Height
}

// DurationSeconds prefers the container duration and falls back to the
// longest stream duration. It returns 0 when nothing usable is reported.
func (i Info) DurationSeconds() float64 {
	if d := parseFloat(i.Format.Duration); d > 0 {
		return d
	}
	best := 0.0
	for _, stream := range i.Streams {
		if d := parseFloat(stream.Duration); d > best {
			best = d
		}
	}
	return best
}

// FrameRate parses the first video stream's average frame rate ("30000/1001").
func (i Info) FrameRate() float64 {
	v, ok := i.Video()
	if !ok {
		return 0
	}
	num, den, found := strings.Cut(v.AvgFrameRate, "/")
	if !found {
		return parseFloat(num)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}
