package ship

import (
	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/waypoint"
)

// Mission engine surface. Like every mutator, these run on the loop
// goroutine (the mission system is stepped by the same loop).

// CreateWaypoint registers a mission waypoint and makes it targetable on the
// next rebuild.
func (s *Ship) CreateWaypoint(spec waypoint.Spec) *waypoint.Waypoint {
	wp := s.wps.Create(spec)
	s.rebuildNeeded = true
	s.audit(s.tick.Load(), "WAYPOINT_CREATE", wp.ID, wp.Name)
	return wp
}

// CompleteWaypoint walks an active or triggered waypoint to completed and
// removes it from play.
func (s *Ship) CompleteWaypoint(id string) error {
	wp := s.wps.Get(id)
	if wp != nil && wp.Status == waypoint.StatusActive {
		if err := s.wps.Trigger(id); err != nil {
			return err
		}
	}
	if err := s.wps.Complete(id); err != nil {
		return err
	}
	s.finishWaypoint(wp, protocol.EvWaypointCompleted)
	return nil
}

// ExpireWaypoint retires an active waypoint without completing it.
func (s *Ship) ExpireWaypoint(id string) error {
	wp := s.wps.Get(id)
	if err := s.wps.Expire(id); err != nil {
		return err
	}
	s.finishWaypoint(wp, protocol.EvWaypointExpired)
	return nil
}

func (s *Ship) finishWaypoint(wp *waypoint.Waypoint, evType string) {
	if wp == nil {
		return
	}
	s.pushEvent(protocol.Event{
		"type":        evType,
		"waypoint_id": wp.ID,
		"name":        wp.Name,
	})
	s.audit(s.tick.Load(), "WAYPOINT_FINISH", wp.ID, evType)
	s.rebuildNeeded = true
}

// tickWaypoints fires proximity triggers. A triggered waypoint completes in
// the same tick; its actions are delivered as event payloads.
func (s *Ship) tickWaypoints(nowTick uint64) {
	for _, wp := range s.wps.ActiveWaypoints() {
		if !proximityHit(wp, s.playerPos) {
			continue
		}
		if err := s.wps.Trigger(wp.ID); err != nil {
			continue
		}
		for _, act := range wp.Actions {
			s.pushEvent(protocol.Event{
				"type":        protocol.EvWaypointAction,
				"waypoint_id": wp.ID,
				"action":      act.Type,
				"payload":     act.Payload,
			})
		}
		if err := s.wps.Complete(wp.ID); err == nil {
			s.finishWaypoint(wp, protocol.EvWaypointCompleted)
			s.audit(nowTick, "WAYPOINT_TRIGGER", wp.ID, "proximity")
		}
	}
}

func proximityHit(wp *waypoint.Waypoint, pos galaxy.Vec3) bool {
	for _, tr := range wp.Triggers {
		if tr.Type != "proximity" || tr.Radius <= 0 {
			continue
		}
		if galaxy.Dist(wp.Position, pos) <= tr.Radius {
			return true
		}
	}
	return false
}

// ObjectDestroyed removes a catalog object from play: it leaves the target
// list, the cache and future rebuilds in one step, so no observer sees a
// half-applied destruction.
func (s *Ship) ObjectDestroyed(id string) {
	o := s.sector.Get(id)
	if o == nil {
		return
	}
	key := galaxy.NormalizeID(o.ID)
	if s.destroyed[key] {
		return
	}
	nowTick := s.tick.Load()
	s.destroyed[key] = true

	for i := range s.cached {
		if galaxy.NormalizeID(s.cached[i].ID) == key {
			s.cached = append(s.cached[:i], s.cached[i+1:]...)
			break
		}
	}

	wasCurrent := galaxy.NormalizeID(s.ctrl.CurrentID()) == key
	s.ctrl.OnTargetDestroyed(o.ID)
	if !wasCurrent {
		s.pushEvent(protocol.Event{
			"type":      protocol.EvTargetDestroyed,
			"target_id": o.ID,
			"name":      o.Name,
		})
	}
	s.audit(nowTick, "DESTROY", o.ID, "")
}
