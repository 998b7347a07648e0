package normalize

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestTargetValidate(t *testing.T) {
	if err := DefaultTarget().Validate(); err != nil {
		t.Fatalf("default target invalid: %v", err)
	}
	bad := []TargetSpec{
		{Width: 1920, Height: 1080, FPS: 30, MaxDuration: 60},
		{Width: 1080, Height: 1920, FPS: 0, MaxDuration: 60},
		{Width: 1080, Height: 1920, FPS: 30},
		{Width: 0, Height: 1920, FPS: 30, MaxDuration: 60},
	}
	for _, target := range bad {
		if err := target.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", target)
		}
	}
}

func TestPlanGeometry(t *testing.T) {
	target := DefaultTarget()
	tests := []struct {
		name     string
		w, h     int
		want     Crop
		identity bool
	}{
		{name: "landscape 720p", w: 1280, h: 720, want: Crop{X: 437, Y: 0, Width: 405, Height: 720}},
		{name: "landscape 1080p", w: 1920, h: 1080, want: Crop{X: 656, Y: 0, Width: 608, Height: 1080}},
		{name: "square", w: 1000, h: 1000, want: Crop{X: 218, Y: 0, Width: 563, Height: 1000}},
		{name: "tall", w: 1080, h: 2400, want: Crop{X: 0, Y: 240, Width: 1080, Height: 1920}},
		{name: "portrait smaller", w: 720, h: 1280, want: Crop{Width: 720, Height: 1280}},
		{name: "exact", w: 1080, h: 1920, want: Crop{Width: 1080, Height: 1920}, identity: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := PlanGeometry(tt.w, tt.h, target)
			if err != nil {
				t.Fatalf("PlanGeometry: %v", err)
			}
			if g.Crop != tt.want {
				t.Fatalf("crop = %+v, want %+v", g.Crop, tt.want)
			}
			if g.Identity() != tt.identity {
				t.Fatalf("identity = %v, want %v", g.Identity(), tt.identity)
			}
			if g.Crop.X < 0 || g.Crop.Y < 0 || g.Crop.X+g.Crop.Width > tt.w || g.Crop.Y+g.Crop.Height > tt.h {
				t.Fatalf("crop %+v escapes %dx%d frame", g.Crop, tt.w, tt.h)
			}
			if g.ScaleWidth != 1080 || g.ScaleHeight != 1920 {
				t.Fatalf("scale %dx%d", g.ScaleWidth, g.ScaleHeight)
			}
		})
	}
}

func TestPlanGeometryRejectsEmptySource(t *testing.T) {
	if _, err := PlanGeometry(0, 720, DefaultTarget()); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestPlanDurationLongerPicksWindow(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	for i := 0; i < 200; i++ {
		plan, err := PlanDuration(100, 12, rng)
		if err != nil {
			t.Fatal(err)
		}
		if plan.Offset < 0 || plan.Offset > 88 {
			t.Fatalf("offset %v outside [0, 88]", plan.Offset)
		}
		if plan.Plays != 1 {
			t.Fatalf("plays = %d", plan.Plays)
		}
	}
}

func TestPlanDurationShorterLoops(t *testing.T) {
	plan, err := PlanDuration(5, 12, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Plays != 3 || plan.Offset != 0 {
		t.Fatalf("plan = %+v, want 3 plays at offset 0", plan)
	}
	args := Plan{Duration: plan}.InputArgs()
	if strings.Join(args, " ") != "-stream_loop 2" {
		t.Fatalf("input args = %v", args)
	}
}

func TestPlanDurationEqualPassesThrough(t *testing.T) {
	plan, err := PlanDuration(12, 12, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if plan.Offset != 0 || plan.Plays != 1 || len(Plan{Duration: plan}.InputArgs()) != 0 {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestPlanDurationNearlyEqual(t *testing.T) {
	tests := []struct {
		name   string
		src    float64
		plays  int
		offset float64
	}{
		{name: "slightly short loops", src: 11.9995, plays: 2},
		{name: "slightly long passes through", src: 12.0005, plays: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanDuration(tt.src, 12, rand.New(rand.NewPCG(3, 4)))
			if err != nil {
				t.Fatal(err)
			}
			if plan.Plays != tt.plays || plan.Offset != tt.offset {
				t.Fatalf("plan = %+v, want %d plays at offset %v", plan, tt.plays, tt.offset)
			}
			if covered := float64(plan.Plays)*tt.src - plan.Offset; covered < 12 {
				t.Fatalf("plan covers %vs, want at least 12s", covered)
			}
		})
	}
}

func TestPlanDurationRejectsUnknownLength(t *testing.T) {
	if _, err := PlanDuration(0, 12, nil); err == nil {
		t.Fatal("expected error for zero source duration")
	}
}

func TestVideoFiltersOmitIdentitySteps(t *testing.T) {
	target := DefaultTarget()

	exact, _ := PlanGeometry(1080, 1920, target)
	if got := (Plan{Geometry: exact, FPS: 30}).VideoFilters(); got != "setsar=1,fps=30" {
		t.Fatalf("identity filters = %q", got)
	}

	wide, _ := PlanGeometry(1280, 720, target)
	got := (Plan{Geometry: wide, FPS: 30}).VideoFilters()
	if got != "crop=405:720:437:0,scale=1080:1920:flags=lanczos,setsar=1,fps=30" {
		t.Fatalf("landscape filters = %q", got)
	}
}

func TestNormalizingNormalizedGeometryIsIdentity(t *testing.T) {
	target := DefaultTarget()
	first, err := PlanGeometry(1280, 720, target)
	if err != nil {
		t.Fatal(err)
	}
	second, err := PlanGeometry(first.ScaleWidth, first.ScaleHeight, target)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Identity() {
		t.Fatalf("second pass not identity: %+v", second)
	}
}
