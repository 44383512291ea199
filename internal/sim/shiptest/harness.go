// Package shiptest drives a ship sim black-box through its exported API:
// joins and inputs go through StepOnce, observations come back as FRAME
// JSON on the session's Out channel. Tests here cover whole-tick behavior;
// unit tests live next to their packages.
package shiptest

import (
	"encoding/json"
	"log"
	"os"
	"testing"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/catalogs"
	"planetz.game/internal/sim/ship"
	"planetz.game/internal/sim/tuning"
)

const configDir = "../../../configs"

type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	S    *ship.Ship

	SessionID string
	Out       chan []byte

	lastFrame protocol.FrameMsg
}

// TestTuning is the config most scenarios want: real catalog content, no
// warmup, proximity radius matching the shipped tuning.
func TestTuning() tuning.Tuning {
	tune := tuning.Defaults()
	tune.WarmupSeconds = 0
	return tune
}

func NewHarness(t *testing.T, tune tuning.Tuning) *Harness {
	t.Helper()

	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	s, err := ship.New(ship.Config{ShipID: "ship_test", Tune: tune}, cats, logger)
	if err != nil {
		t.Fatalf("ship.New: %v", err)
	}
	return NewHarnessWithShip(t, s, cats)
}

// NewHarnessWithShip wraps an already-constructed ship, for restore tests
// where state is imported before the first join.
func NewHarnessWithShip(t *testing.T, s *ship.Ship, cats *catalogs.Catalogs) *Harness {
	t.Helper()

	h := &Harness{T: t, Cats: cats, S: s, SessionID: "sess_test", Out: make(chan []byte, 16)}
	resp := make(chan ship.JoinResponse, 1)
	_, _ = s.StepOnce([]ship.JoinRequest{{
		SessionID: h.SessionID,
		Out:       h.Out,
		Resp:      resp,
	}}, nil)
	jr := <-resp
	if jr.Welcome.SessionID != h.SessionID {
		t.Fatalf("join returned session %q", jr.Welcome.SessionID)
	}
	h.drainFrames()
	return h
}

func (h *Harness) input(cmd string, mut func(*protocol.InputMsg)) protocol.InputMsg {
	in := protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Tick:            h.S.CurrentTick(),
		Command:         cmd,
	}
	if mut != nil {
		mut(&in)
	}
	return in
}

// Step advances one tick with the given inputs and returns the frame.
func (h *Harness) Step(inputs ...protocol.InputMsg) protocol.FrameMsg {
	h.T.Helper()
	envs := make([]ship.InputEnvelope, 0, len(inputs))
	for _, in := range inputs {
		envs = append(envs, ship.InputEnvelope{SessionID: h.SessionID, Input: in})
	}
	_, _ = h.S.StepOnce(nil, envs)
	h.drainFrames()
	return h.lastFrame
}

func (h *Harness) StepNoop() protocol.FrameMsg { return h.Step() }

func (h *Harness) LastFrame() protocol.FrameMsg { return h.lastFrame }

// Keyboard-surface helpers.
func (h *Harness) Cycle() protocol.FrameMsg { return h.Step(h.input(protocol.CmdCycleTarget, nil)) }
func (h *Harness) Clear() protocol.FrameMsg { return h.Step(h.input(protocol.CmdClearTarget, nil)) }

func (h *Harness) SelectChart(id string) protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdSelectFromChart, func(in *protocol.InputMsg) { in.TargetID = id }))
}

func (h *Harness) WaypointResume() protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdWaypointResume, nil))
}

func (h *Harness) WaypointCycle() protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdWaypointCycle, nil))
}

func (h *Harness) CloseNavUI() protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdCloseNavUI, nil))
}

func (h *Harness) ToggleComputer() protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdToggleComputer, nil))
}

func (h *Harness) SetPos(x, y, z float64) protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdSetPosition, func(in *protocol.InputMsg) {
		in.Position = &[3]float64{x, y, z}
	}))
}

func (h *Harness) Warp(sectorID string) protocol.FrameMsg {
	return h.Step(h.input(protocol.CmdWarp, func(in *protocol.InputMsg) { in.SectorID = sectorID }))
}

// EventsOfType filters a frame's events.
func EventsOfType(frame protocol.FrameMsg, evType string) []protocol.Event {
	var out []protocol.Event
	for _, e := range frame.Events {
		if t, _ := e["type"].(string); t == evType {
			out = append(out, e)
		}
	}
	return out
}

// TargetIDs lists the frame's target list ids in cycle order.
func TargetIDs(frame protocol.FrameMsg) []string {
	out := make([]string, 0, len(frame.Targets))
	for _, t := range frame.Targets {
		out = append(out, t.ID)
	}
	return out
}

func (h *Harness) drainFrames() {
	h.T.Helper()
	var last []byte
	for {
		select {
		case b := <-h.Out:
			last = b
			continue
		default:
		}
		break
	}
	if len(last) == 0 {
		return
	}
	var frame protocol.FrameMsg
	if err := json.Unmarshal(last, &frame); err != nil {
		h.T.Fatalf("unmarshal FRAME: %v", err)
	}
	h.lastFrame = frame
}
