package sim

import (
	"testing"

	"ironhaul/server/internal/scene"
)

func TestTickDeltaClampsMeasuredTime(t *testing.T) {
	cases := []struct {
		name     string
		elapsed  int64
		tutorial bool
		want     int64
	}{
		{"negative clamps to zero", -20, false, 0},
		{"short delta passes through", 16, false, 16},
		{"exact limit passes through", 500, false, 500},
		{"stall clamps to limit", 4000, false, 500},
		{"tutorial forces fixed delta", 16, true, 31},
		{"tutorial wins over stall clamp", 4000, true, 31},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TickDelta(tc.elapsed, tc.tutorial); got != tc.want {
				t.Fatalf("expected delta %d, got %d", tc.want, got)
			}
		})
	}
}

func TestEffectiveTimeScale(t *testing.T) {
	if got := EffectiveTimeScale(1.0, scene.SpeedNormal, false); got != 1.0 {
		t.Fatalf("expected normal scale 1.0, got %v", got)
	}
	if got := EffectiveTimeScale(1.0, scene.SpeedFastForward, false); got != 3.0 {
		t.Fatalf("expected fast-forward scale 3.0, got %v", got)
	}
	if got := EffectiveTimeScale(1.0, scene.SpeedExtraFast, false); got != 9.0 {
		t.Fatalf("expected extra-fast scale 9.0, got %v", got)
	}
	if got := EffectiveTimeScale(2.0, scene.SpeedFastForward, false); got != 6.0 {
		t.Fatalf("expected configured scale to multiply through, got %v", got)
	}
	if got := EffectiveTimeScale(1.0, scene.SpeedExtraFast, true); got != 0 {
		t.Fatalf("expected paused scale 0, got %v", got)
	}
	if got := EffectiveTimeScale(0, scene.SpeedNormal, false); got != 1.0 {
		t.Fatalf("expected zero base to default to 1.0, got %v", got)
	}
}

func TestPassTickCap(t *testing.T) {
	for behind := 0; behind <= CatchupWindow; behind++ {
		if got := PassTickCap(behind, 0); got != 0 {
			t.Fatalf("expected no cap at %d behind, got %d", behind, got)
		}
	}
	if got := PassTickCap(CatchupWindow+1, 0); got != CatchupWindow {
		t.Fatalf("expected catch-up cap %d, got %d", CatchupWindow, got)
	}
	if got := PassTickCap(500, 0); got != CatchupWindow {
		t.Fatalf("expected cap to stay %d for a large lag, got %d", CatchupWindow, got)
	}
	if got := PassTickCap(500, 8); got != 8 {
		t.Fatalf("expected configured window 8, got %d", got)
	}
	if got := PassTickCap(8, 8); got != 0 {
		t.Fatalf("expected no cap inside the configured window, got %d", got)
	}
}
