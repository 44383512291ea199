package shiptest

import (
	"testing"
)

func TestWarmup_BlocksSelectionWithCountdown(t *testing.T) {
	tune := TestTuning()
	tune.WarmupSeconds = 10 // 100 ticks at 10 Hz
	h := NewHarness(t, tune)

	frame := h.Cycle()
	if frame.Target != nil {
		t.Fatalf("selection during warmup: %+v", frame.Target)
	}
	if !frame.Player.Warmup {
		t.Fatalf("frame does not flag warmup")
	}
	if !hasHUD(frame.HUD, "TARGETING SYSTEMS WARMING UP — 10s") {
		t.Fatalf("HUD = %v", frame.HUD)
	}

	// Partway through, the countdown rounds up.
	for h.S.CurrentTick() < 75 {
		h.StepNoop()
	}
	frame = h.Cycle()
	if !hasHUD(frame.HUD, "TARGETING SYSTEMS WARMING UP — 3s") {
		t.Fatalf("HUD at tick 75 = %v", frame.HUD)
	}

	for h.S.CurrentTick() < 100 {
		h.StepNoop()
	}
	frame = h.Cycle()
	if frame.Target == nil || frame.Target.ID != "A0_star" {
		t.Fatalf("cycle after warmup = %+v", frame.Target)
	}
	if frame.Player.Warmup {
		t.Fatalf("warmup flag still set at tick %d", h.S.CurrentTick())
	}

	// Discovery was never gated: the spawn scan ran on tick 0.
	if !h.S.Discovery().IsDiscovered("A0_terra_prime") {
		t.Fatalf("warmup blocked passive discovery")
	}
}
