package shiptest

import (
	"testing"

	"planetz.game/internal/sim/targeting"
)

func TestCycle_OrderAndWrap(t *testing.T) {
	h := NewHarness(t, TestTuning())

	order := []string{"A0_star", "A0_nav_beacon_1", "A0_enemy_drone", "A0_terra_prime", "A0_star"}
	for i, want := range order {
		frame := h.Cycle()
		if frame.Target == nil {
			t.Fatalf("cycle %d: no target", i)
		}
		if frame.Target.ID != want {
			t.Fatalf("cycle %d: target = %s, want %s", i, frame.Target.ID, want)
		}
	}
}

func TestCycle_EscClearsAndRestartsFromNearest(t *testing.T) {
	h := NewHarness(t, TestTuning())

	h.Cycle()
	h.Cycle() // beacon
	frame := h.Clear()
	if frame.Target != nil {
		t.Fatalf("target after clear = %+v", frame.Target)
	}
	frame = h.Cycle()
	if frame.Target == nil || frame.Target.ID != "A0_star" {
		t.Fatalf("cycle after clear = %+v, want nearest (A0_star)", frame.Target)
	}
}

func TestManualNavigation_SurvivesCyclingUntilUIClose(t *testing.T) {
	h := NewHarness(t, TestTuning())

	frame := h.SelectChart("A0_enemy_drone")
	if frame.Target == nil || frame.Target.ID != "A0_enemy_drone" {
		t.Fatalf("chart select = %+v", frame.Target)
	}
	if got := h.S.Controller().Mode(); got != targeting.ModeManualNav {
		t.Fatalf("mode = %s, want manualNavigation", got)
	}

	h.Cycle()
	if got := h.S.Controller().Mode(); got != targeting.ModeManualNav {
		t.Fatalf("mode after cycling = %s, manual navigation must survive", got)
	}

	h.CloseNavUI()
	if got := h.S.Controller().Mode(); got != targeting.ModeNone {
		t.Fatalf("mode after nav UI close = %s, want none", got)
	}
}

func TestSelectChart_UndiscoveredBecomesManualDiscovery(t *testing.T) {
	h := NewHarness(t, TestTuning())

	// Hermes sits at ~225 from spawn, outside the scan radius. A chart pick
	// discovers it manually and selects it in the same tick.
	frame := h.SelectChart("A0_hermes_station")
	if frame.Target == nil || frame.Target.ID != "A0_hermes_station" {
		t.Fatalf("chart select of undiscovered station = %+v", frame.Target)
	}
	rec, ok := h.S.Discovery().Get("A0_hermes_station")
	if !ok || rec.Method != "manual" {
		t.Fatalf("station record = %+v ok=%v, want manual", rec, ok)
	}
}

func TestSelectChart_UnknownIDIsHUDOnly(t *testing.T) {
	h := NewHarness(t, TestTuning())

	frame := h.SelectChart("A0_no_such_thing")
	if frame.Target != nil {
		t.Fatalf("target = %+v, want none", frame.Target)
	}
	if !hasHUD(frame.HUD, "TARGET NOT FOUND") {
		t.Fatalf("HUD = %v, want TARGET NOT FOUND", frame.HUD)
	}
}

func TestTargetComputer_ToggleBlocksAndClears(t *testing.T) {
	h := NewHarness(t, TestTuning())

	h.Cycle() // star selected
	frame := h.ToggleComputer()
	if frame.Target != nil {
		t.Fatalf("target survives computer shutdown: %+v", frame.Target)
	}

	frame = h.Cycle()
	if frame.Target != nil {
		t.Fatalf("cycle with computer down selected %+v", frame.Target)
	}
	if !hasHUD(frame.HUD, "TARGETING COMPUTER OFFLINE") {
		t.Fatalf("HUD = %v, want TARGETING COMPUTER OFFLINE", frame.HUD)
	}

	h.ToggleComputer()
	frame = h.Cycle()
	if frame.Target == nil || frame.Target.ID != "A0_star" {
		t.Fatalf("cycle after computer restore = %+v", frame.Target)
	}
}

func hasHUD(hud []string, want string) bool {
	for _, msg := range hud {
		if msg == want {
			return true
		}
	}
	return false
}
