package ship

import (
	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/discovery"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/targeting"
)

// applyInput routes one client input. Rejections surface as HUD messages,
// never as aborted ticks.
func (s *Ship) applyInput(env InputEnvelope, nowTick uint64) {
	in := env.Input
	switch in.Command {
	case protocol.CmdCycleTarget:
		s.reportErr(s.ctrl.CycleNext())

	case protocol.CmdClearTarget:
		s.ctrl.ClearCurrentTarget()

	case protocol.CmdSelectFromChart:
		s.selectFromChart(in.TargetID, nowTick)

	case protocol.CmdWaypointResume:
		s.waypointResume()

	case protocol.CmdWaypointCycle:
		s.waypointCycle()

	case protocol.CmdCloseNavUI:
		s.ctrl.CloseNavigationUI()

	case protocol.CmdToggleComputer:
		if s.ctrl.Computer() == targeting.ComputerOperational {
			s.ctrl.SetComputerStatus(targeting.ComputerDisabled)
		} else {
			s.ctrl.SetComputerStatus(targeting.ComputerOperational)
		}
		s.audit(nowTick, "TOGGLE_COMPUTER", "", string(s.ctrl.Computer()))

	case protocol.CmdSetPosition:
		if in.Position != nil {
			s.playerPos = galaxy.FromArray(*in.Position)
		}

	case protocol.CmdWarp:
		if in.SectorID == "" {
			s.pushHUD("WARP ABORTED — No destination sector")
			return
		}
		var pos *galaxy.Vec3
		if in.Position != nil {
			p := galaxy.FromArray(*in.Position)
			pos = &p
		}
		if err := s.warpTo(in.SectorID, pos, nowTick); err != nil {
			s.warnf("warp to %s failed: %v", in.SectorID, err)
			s.pushHUD("WARP ABORTED — Sector unavailable")
		}

	default:
		s.warnf("unknown input command %q from %s", in.Command, env.SessionID)
	}
}

// selectFromChart is the Star Charts / Long Range Scanner pick. An
// undiscovered catalog object becomes a manual discovery first, so the pick
// lands in the list before selection.
func (s *Ship) selectFromChart(targetID string, nowTick uint64) {
	if targetID == "" {
		s.pushHUD("TARGET NOT FOUND")
		return
	}
	if o := s.sector.Get(targetID); o != nil && !s.disc.IsDiscovered(o.ID) {
		if added, _ := s.disc.Discover(o.ID, discovery.MethodManual, true); added {
			s.pushEvent(discoveredEvent(*o))
			s.audit(nowTick, "DISCOVER", o.ID, "manual")
			s.rebuildList()
		}
	}
	s.reportErr(s.ctrl.SelectFromCatalog(targetID))
}

// waypointResume is the W key: resume the interrupted waypoint if one is in
// the slot, otherwise select the nearest active waypoint.
func (s *Ship) waypointResume() {
	resumed, err := s.ctrl.ResumeInterruptedWaypoint()
	if err != nil {
		s.reportErr(err)
		return
	}
	if resumed {
		return
	}
	wp := s.wps.NextActive(s.playerPos)
	if wp == nil {
		s.reportErr(targeting.ErrNoWaypoints)
		return
	}
	s.reportErr(s.ctrl.SelectWaypointByCycle(wp.ID))
}

// waypointCycle is Shift-W: advance to the next active waypoint after the
// current one, wrapping.
func (s *Ship) waypointCycle() {
	currentID := ""
	if cur := s.ctrl.Current(); cur != nil && cur.IsWaypoint {
		currentID = cur.ID
	}
	wp := s.wps.NextActiveAfter(s.playerPos, currentID)
	if wp == nil {
		s.reportErr(targeting.ErrNoWaypoints)
		return
	}
	s.reportErr(s.ctrl.SelectWaypointByCycle(wp.ID))
}

// reportErr converts a controller rejection into its HUD message. Errors
// with no user-visible form are logged only.
func (s *Ship) reportErr(err error) {
	if err == nil {
		return
	}
	if msg := targeting.HUDMessage(err); msg != "" {
		s.pushHUD(msg)
		return
	}
	s.warnf("input rejected: %v", err)
}
