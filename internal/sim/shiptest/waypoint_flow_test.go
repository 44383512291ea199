package shiptest

import (
	"testing"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/waypoint"
)

func TestWaypoint_InterruptAndResume(t *testing.T) {
	h := NewHarness(t, TestTuning())

	wp := h.S.CreateWaypoint(waypoint.Spec{Name: "Rally Point", Position: galaxy.V3(50, 0, 0)})
	h.StepNoop()

	frame := h.WaypointResume()
	if frame.Target == nil || frame.Target.ID != wp.ID {
		t.Fatalf("W selected %+v, want %s", frame.Target, wp.ID)
	}
	if !frame.Target.Waypoint || frame.Target.Color != "#ff00ff" {
		t.Fatalf("waypoint frame = %+v, want waypoint magenta", frame.Target)
	}

	// Picking a hostile pushes the waypoint into the interruption slot.
	frame = h.SelectChart("A0_enemy_drone")
	if len(EventsOfType(frame, protocol.EvWaypointInterrupted)) != 1 {
		t.Fatalf("events = %v, want one WAYPOINT_INTERRUPTED", frame.Events)
	}
	if got := h.S.Waypoints().Get(wp.ID).Status; got != waypoint.StatusInterrupted {
		t.Fatalf("waypoint status = %s, want interrupted", got)
	}
	if got := h.S.Controller().InterruptedWaypointID(); got != wp.ID {
		t.Fatalf("interruption slot = %q, want %s", got, wp.ID)
	}

	// W resumes the slot.
	frame = h.WaypointResume()
	if frame.Target == nil || frame.Target.ID != wp.ID {
		t.Fatalf("resume selected %+v, want %s", frame.Target, wp.ID)
	}
	if len(EventsOfType(frame, protocol.EvWaypointResumed)) != 1 {
		t.Fatalf("events = %v, want one WAYPOINT_RESUMED", frame.Events)
	}
	if got := h.S.Controller().InterruptedWaypointID(); got != "" {
		t.Fatalf("interruption slot = %q after resume, want empty", got)
	}
	if got := h.S.Waypoints().Get(wp.ID).Status; got != waypoint.StatusActive {
		t.Fatalf("waypoint status = %s after resume, want active", got)
	}
}

func TestWaypoint_EscKeepsInterruptionSlot(t *testing.T) {
	h := NewHarness(t, TestTuning())

	wp := h.S.CreateWaypoint(waypoint.Spec{Name: "Rally Point", Position: galaxy.V3(50, 0, 0)})
	h.StepNoop()
	h.WaypointResume()
	h.SelectChart("A0_enemy_drone")

	frame := h.Clear()
	if frame.Target != nil {
		t.Fatalf("target after Esc = %+v", frame.Target)
	}
	if got := h.S.Controller().InterruptedWaypointID(); got != wp.ID {
		t.Fatalf("Esc dropped the interruption slot (= %q)", got)
	}

	frame = h.WaypointResume()
	if frame.Target == nil || frame.Target.ID != wp.ID {
		t.Fatalf("resume after Esc selected %+v, want %s", frame.Target, wp.ID)
	}
}

func TestWaypoint_WSelectsNearestThenShiftWCycles(t *testing.T) {
	h := NewHarness(t, TestTuning())

	near := h.S.CreateWaypoint(waypoint.Spec{Name: "Near", Position: galaxy.V3(50, 0, 0)})
	far := h.S.CreateWaypoint(waypoint.Spec{Name: "Far", Position: galaxy.V3(100, 0, 0)})
	h.StepNoop()

	frame := h.WaypointResume()
	if frame.Target == nil || frame.Target.ID != near.ID {
		t.Fatalf("W selected %+v, want nearest %s", frame.Target, near.ID)
	}
	frame = h.WaypointCycle()
	if frame.Target == nil || frame.Target.ID != far.ID {
		t.Fatalf("Shift-W selected %+v, want %s", frame.Target, far.ID)
	}
	frame = h.WaypointCycle()
	if frame.Target == nil || frame.Target.ID != near.ID {
		t.Fatalf("Shift-W wrap selected %+v, want %s", frame.Target, near.ID)
	}
}

func TestWaypoint_NoWaypointsHUD(t *testing.T) {
	h := NewHarness(t, TestTuning())

	frame := h.WaypointResume()
	if frame.Target != nil {
		t.Fatalf("W with no waypoints selected %+v", frame.Target)
	}
	if !hasHUD(frame.HUD, "NO WAYPOINTS — No active waypoints available") {
		t.Fatalf("HUD = %v", frame.HUD)
	}
}

func TestWaypoint_ProximityTriggerCompletes(t *testing.T) {
	h := NewHarness(t, TestTuning())

	wp := h.S.CreateWaypoint(waypoint.Spec{
		Name:     "Patrol Point",
		Position: galaxy.V3(50, 0, 0),
		Triggers: []waypoint.TriggerSpec{{Type: "proximity", Radius: 10}},
		Actions:  []waypoint.ActionSpec{{Type: "advance_mission"}},
	})
	h.StepNoop()

	frame := h.SetPos(45, 0, 0)
	if len(EventsOfType(frame, protocol.EvWaypointCompleted)) != 1 {
		t.Fatalf("events = %v, want WAYPOINT_COMPLETED", frame.Events)
	}
	if len(EventsOfType(frame, "WAYPOINT_ACTION")) != 1 {
		t.Fatalf("events = %v, want WAYPOINT_ACTION", frame.Events)
	}
	if h.S.Waypoints().Get(wp.ID) != nil {
		t.Fatalf("completed waypoint still in store")
	}
	for _, id := range TargetIDs(h.StepNoop()) {
		if id == wp.ID {
			t.Fatalf("completed waypoint still listed")
		}
	}
}
