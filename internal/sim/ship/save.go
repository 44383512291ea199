package ship

import (
	"fmt"
	"sort"
	"time"

	"planetz.game/internal/persistence/snapshot"
	"planetz.game/internal/sim/discovery"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/targeting"
	"planetz.game/internal/sim/waypoint"
)

// Save bundles the three persisted slot payloads for one ship.
type Save struct {
	Discovery snapshot.DiscoveryV1
	Waypoints snapshot.WaypointsV1
	Session   snapshot.SessionV1
}

func (s *Ship) header(key string, nowTick uint64, savedAt time.Time) snapshot.Header {
	return snapshot.Header{
		Version: 1,
		Key:     key,
		ShipID:  s.cfg.ShipID,
		Tick:    nowTick,
		SavedAt: savedAt.UTC().Format(time.RFC3339),
	}
}

// ExportSave captures the full resumable state at a tick boundary.
func (s *Ship) ExportSave(nowTick uint64) Save {
	now := time.Now()

	disc := snapshot.DiscoveryV1{
		Header:  s.header(snapshot.KeyDiscovery, nowTick, now),
		Sectors: map[string][]snapshot.RecordV1{},
	}
	for sec, recs := range s.disc.Export() {
		out := make([]snapshot.RecordV1, 0, len(recs))
		for _, r := range recs {
			out = append(out, snapshot.RecordV1{
				ObjectID:        r.ObjectID,
				DiscoveredAt:    r.DiscoveredAt.UTC().Format(time.RFC3339),
				Method:          string(r.Method),
				FirstDiscovered: r.FirstDiscovered,
				Sector:          r.Sector,
			})
		}
		disc.Sectors[sec] = out
	}

	wps := snapshot.WaypointsV1{
		Header: s.header(snapshot.KeyWaypoints, nowTick, now),
	}
	for _, wp := range s.wps.Export() {
		wps.Waypoints = append(wps.Waypoints, waypointToV1(wp))
	}

	sess := snapshot.SessionV1{
		Header:    s.header(snapshot.KeySession, nowTick, now),
		Sector:    s.sector.Sector(),
		PlayerPos: s.playerPos.Array(),
	}
	st := s.ctrl.ExportState()
	sess.Controller.CurrentTargetID = st.CurrentTargetID
	sess.Controller.Mode = string(st.Mode)
	sess.Controller.InterruptedWaypointID = st.InterruptedWaypointID
	sess.Controller.RangeMonitorActive = st.RangeMonitorActive
	sess.Controller.Computer = string(st.Computer)
	for id := range s.destroyed {
		sess.DestroyedIDs = append(sess.DestroyedIDs, id)
	}
	sort.Strings(sess.DestroyedIDs)

	return Save{Discovery: disc, Waypoints: wps, Session: sess}
}

// ImportSave restores a persisted session. Discovery and waypoints load
// best-effort (bad records are skipped); a missing session sector is the
// only hard failure.
func (s *Ship) ImportSave(save Save) error {
	data := map[string][]discovery.Record{}
	for sec, recs := range save.Discovery.Sectors {
		out := make([]discovery.Record, 0, len(recs))
		for _, r := range recs {
			at, err := time.Parse(time.RFC3339, r.DiscoveredAt)
			if err != nil {
				s.warnf("discovery load: bad timestamp for %s: %v", r.ObjectID, err)
				at = time.Time{}
			}
			out = append(out, discovery.Record{
				ObjectID:        r.ObjectID,
				DiscoveredAt:    at,
				Method:          discovery.Method(r.Method),
				FirstDiscovered: r.FirstDiscovered,
				Sector:          r.Sector,
			})
		}
		data[sec] = out
	}
	s.disc.Import(data)

	wps := make([]waypoint.Waypoint, 0, len(save.Waypoints.Waypoints))
	for _, w := range save.Waypoints.Waypoints {
		wps = append(wps, waypointFromV1(w))
	}
	s.wps.Import(wps)

	sectorID := save.Session.Sector
	if sectorID == "" {
		sectorID = s.cfg.Tune.StartSector
	}
	next, err := galaxy.LoadSector(s.src, sectorID)
	if err != nil {
		return fmt.Errorf("restore session sector: %w", err)
	}
	s.sector = next
	s.disc.ScopeTo(next.Sector())
	s.playerPos = galaxy.FromArray(save.Session.PlayerPos)

	s.destroyed = map[string]bool{}
	for _, id := range save.Session.DestroyedIDs {
		if key := galaxy.NormalizeID(id); key != "" {
			s.destroyed[key] = true
		}
	}
	s.cached = nil

	s.rebuildList()
	s.rebuildNeeded = false
	s.ctrl.ImportState(targeting.State{
		CurrentTargetID:       save.Session.Controller.CurrentTargetID,
		Mode:                  targeting.Mode(save.Session.Controller.Mode),
		InterruptedWaypointID: save.Session.Controller.InterruptedWaypointID,
		RangeMonitorActive:    save.Session.Controller.RangeMonitorActive,
		Computer:              targeting.ComputerStatus(save.Session.Controller.Computer),
	})
	return nil
}

func waypointToV1(wp waypoint.Waypoint) snapshot.WaypointV1 {
	out := snapshot.WaypointV1{
		ID:        wp.ID,
		Name:      wp.Name,
		Position:  wp.Position.Array(),
		Kind:      string(wp.Kind),
		Status:    string(wp.Status),
		MissionID: wp.MissionID,
	}
	for _, tr := range wp.Triggers {
		out.Triggers = append(out.Triggers, snapshot.TriggerSpecV1{Type: tr.Type, Radius: tr.Radius})
	}
	for _, act := range wp.Actions {
		out.Actions = append(out.Actions, snapshot.ActionSpecV1{Type: act.Type, Payload: act.Payload})
	}
	return out
}

func waypointFromV1(w snapshot.WaypointV1) waypoint.Waypoint {
	out := waypoint.Waypoint{
		ID:        w.ID,
		Name:      w.Name,
		Position:  galaxy.FromArray(w.Position),
		Kind:      waypoint.Kind(w.Kind),
		Status:    waypoint.Status(w.Status),
		MissionID: w.MissionID,
	}
	for _, tr := range w.Triggers {
		out.Triggers = append(out.Triggers, waypoint.TriggerSpec{Type: tr.Type, Radius: tr.Radius})
	}
	for _, act := range w.Actions {
		out.Actions = append(out.Actions, waypoint.ActionSpec{Type: act.Type, Payload: act.Payload})
	}
	return out
}
