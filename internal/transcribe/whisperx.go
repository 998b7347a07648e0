package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shortsmith/internal/runner"
)

// WhisperX configuration constants.
const (
	DefaultModel      = "medium"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CPUComputeType    = "float32"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"
	UVXCommand        = "uvx"
)

// WhisperX runs the whisperx CLI through uvx.
type WhisperX struct {
	Runner      runner.Runner
	UVX         string
	Model       string
	Device      string
	ComputeType string
	Language    string
	HFToken     string
	// WorkDir hosts the per-call output directory; os.TempDir when empty.
	WorkDir string
}

// Name implements Transcriber.
func (w *WhisperX) Name() string {
	return "whisperx:" + w.model()
}

// Transcribe runs whisperx once on audioPath. Any failure is reported as
// ErrTranscriptionUnavailable; the scratch output directory is always removed.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, fmt.Errorf("%w: audio path required", ErrTranscriptionUnavailable)
	}
	if w.WorkDir != "" {
		if err := os.MkdirAll(w.WorkDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: ensure work dir: %v", ErrTranscriptionUnavailable, err)
		}
	}
	outputDir, err := os.MkdirTemp(w.WorkDir, "whisperx-")
	if err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", ErrTranscriptionUnavailable, err)
	}
	defer os.RemoveAll(outputDir)

	opts := runner.RunOptions{}
	// Torch 2.6 changed torch.load to weights_only=true which breaks the
	// bundled alignment checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		opts.Env = []string{"TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1"}
	}

	uvx := w.UVX
	if uvx == "" {
		uvx = UVXCommand
	}
	res, err := runner.OrDefault(w.Runner).Run(ctx, uvx, w.buildArgs(audioPath, outputDir), opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: whisperx: %v: %s", ErrTranscriptionUnavailable, err, strings.TrimSpace(string(res.Stderr)))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionUnavailable, err)
	}
	return segments, nil
}

func (w *WhisperX) model() string {
	if w.Model != "" {
		return w.Model
	}
	return DefaultModel
}

func (w *WhisperX) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)
	args = append(args,
		"--index-url", PypiIndexURL,
		"whisperx",
		source,
		"--model", w.model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
	)

	vad := VADMethodSilero
	if w.HFToken != "" {
		vad = VADMethodPyannote
	}
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote {
		args = append(args, "--hf_token", w.HFToken)
	}

	if lang := strings.TrimSpace(w.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	device := w.Device
	if device == "" {
		device = CPUDevice
	}
	args = append(args, "--device", device)
	if device == CPUDevice {
		compute := w.ComputeType
		if compute == "" {
			compute = CPUComputeType
		}
		args = append(args, "--compute_type", compute)
	} else if w.ComputeType != "" {
		args = append(args, "--compute_type", w.ComputeType)
	}
	return args
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}
