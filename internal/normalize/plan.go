// Package normalize turns an arbitrary background clip into footage that
// exactly matches the output geometry, framerate and duration.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"shortsmith/internal/render"
)

// durationEpsilon is how much longer than the target a source may be and
// still play from the start. A shorter source always loops.
const durationEpsilon = 1e-3

// TargetSpec is the geometry every composition is normalized to.
type TargetSpec struct {
	Width       int
	Height      int
	FPS         int
	MaxDuration float64
}

// DefaultTarget is 1080x1920 at 30fps, at most 60 seconds.
func DefaultTarget() TargetSpec {
	return TargetSpec{Width: 1080, Height: 1920, FPS: 30, MaxDuration: 60}
}

// Validate requires an exact 9:16 portrait frame.
func (t TargetSpec) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("target dimensions must be positive, got %dx%d", t.Width, t.Height)
	}
	if t.Width*16 != t.Height*9 {
		return fmt.Errorf("target %dx%d is not 9:16", t.Width, t.Height)
	}
	if t.FPS <= 0 {
		return fmt.Errorf("target fps must be positive, got %d", t.FPS)
	}
	if t.MaxDuration <= 0 {
		return errors.New("target max duration must be positive")
	}
	return nil
}

// Aspect is height over width.
func (t TargetSpec) Aspect() float64 {
	return float64(t.Height) / float64(t.Width)
}

// Crop is a rectangle inside the source frame.
type Crop struct {
	X, Y          int
	Width, Height int
}

// Geometry is the crop and scale that map a source frame onto the target.
type Geometry struct {
	SourceWidth  int
	SourceHeight int
	Crop         Crop
	ScaleWidth   int
	ScaleHeight  int
}

// Identity reports whether the source already is the target frame.
func (g Geometry) Identity() bool {
	return g.SourceWidth == g.ScaleWidth && g.SourceHeight == g.ScaleHeight && g.cropIsFullFrame()
}

func (g Geometry) cropIsFullFrame() bool {
	c := g.Crop
	return c.X == 0 && c.Y == 0 && c.Width == g.SourceWidth && c.Height == g.SourceHeight
}

func (g Geometry) needsScale() bool {
	return g.Crop.Width != g.ScaleWidth || g.Crop.Height != g.ScaleHeight
}

// PlanGeometry computes the centered crop that gives the source the target
// aspect ratio, followed by a scale to the target size.
//
// Aspect is height/width. A source with a smaller aspect than the target is
// relatively wider: it keeps its full height and is cropped horizontally.
// A source with a larger aspect keeps its full width and is cropped
// vertically. Crop dimensions never exceed the source and crop origins are
// clamped inside the frame.
func PlanGeometry(srcW, srcH int, target TargetSpec) (Geometry, error) {
	if srcW <= 0 || srcH <= 0 {
		return Geometry{}, fmt.Errorf("source dimensions must be positive, got %dx%d", srcW, srcH)
	}
	if err := target.Validate(); err != nil {
		return Geometry{}, err
	}

	g := Geometry{
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Crop:         Crop{Width: srcW, Height: srcH},
		ScaleWidth:   target.Width,
		ScaleHeight:  target.Height,
	}
	if srcW == target.Width && srcH == target.Height {
		return g, nil
	}

	// Compare srcH/srcW with target.Height/target.Width without division.
	lhs := srcH * target.Width
	rhs := target.Height * srcW

	switch {
	case lhs < rhs:
		newW := clampInt(int(math.Round(float64(srcH*target.Width)/float64(target.Height))), 1, srcW)
		g.Crop.Width = newW
		g.Crop.X = clampInt((srcW-newW)/2, 0, srcW-newW)
	case lhs > rhs:
		newH := clampInt(int(math.Round(float64(srcW*target.Height)/float64(target.Width))), 1, srcH)
		g.Crop.Height = newH
		g.Crop.Y = clampInt((srcH-newH)/2, 0, srcH-newH)
	}
	return g, nil
}

// DurationPlan describes how the source timeline maps onto the target.
type DurationPlan struct {
	Source float64
	Target float64
	// Offset is the seek into the source when it is longer than the target.
	Offset float64
	// Plays is how many times the source plays back to back. 1 means no loop.
	Plays int
}

// Looped reports whether the source repeats.
func (d DurationPlan) Looped() bool {
	return d.Plays > 1
}

// PlanDuration matches a source of srcDur seconds to target seconds. Longer
// sources get a uniformly random window, shorter ones loop
// ceil(target/srcDur) times and are trimmed, equal ones pass through.
func PlanDuration(srcDur, target float64, rng *rand.Rand) (DurationPlan, error) {
	if srcDur <= 0 || math.IsNaN(srcDur) || math.IsInf(srcDur, 0) {
		return DurationPlan{}, fmt.Errorf("source duration must be positive, got %v", srcDur)
	}
	if target <= 0 {
		return DurationPlan{}, fmt.Errorf("target duration must be positive, got %v", target)
	}

	plan := DurationPlan{Source: srcDur, Target: target, Plays: 1}
	switch {
	case srcDur >= target && srcDur-target <= durationEpsilon:
	case srcDur > target:
		window := srcDur - target
		if rng != nil {
			plan.Offset = rng.Float64() * window
		} else {
			plan.Offset = rand.Float64() * window
		}
		plan.Offset = math.Round(plan.Offset*1000) / 1000
		plan.Offset = render.Clamp(plan.Offset, 0, window)
	default:
		plan.Plays = int(math.Ceil(target / srcDur))
	}
	return plan, nil
}

// Plan is the complete normalization recipe for one clip.
type Plan struct {
	Geometry Geometry
	Duration DurationPlan
	FPS      int
}

// VideoFilters renders the crop/scale/fps chain, omitting identity steps.
func (p Plan) VideoFilters() string {
	g := p.Geometry
	var filters []string
	if !g.cropIsFullFrame() {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d", g.Crop.Width, g.Crop.Height, g.Crop.X, g.Crop.Y))
	}
	if g.needsScale() {
		filters = append(filters, fmt.Sprintf("scale=%d:%d:flags=lanczos", g.ScaleWidth, g.ScaleHeight))
	}
	filters = append(filters, "setsar=1")
	if p.FPS > 0 {
		filters = append(filters, "fps="+strconv.Itoa(p.FPS))
	}
	return strings.Join(filters, ",")
}

// InputArgs renders the options that precede -i for the source.
func (p Plan) InputArgs() []string {
	var args []string
	if p.Duration.Looped() {
		args = append(args, "-stream_loop", strconv.Itoa(p.Duration.Plays-1))
	}
	if p.Duration.Offset > 0 {
		args = append(args, "-ss", render.FormatFloat(p.Duration.Offset))
	}
	return args
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
