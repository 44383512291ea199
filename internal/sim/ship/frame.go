package ship

import (
	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/diplomacy"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/targeting"
)

func (s *Ship) buildFrame(nowTick uint64) protocol.FrameMsg {
	entries := s.list.Entries()
	targets := make([]protocol.TargetFrame, 0, len(entries))
	for i := range entries {
		targets = append(targets, s.targetFrame(&entries[i]))
	}

	var current *protocol.TargetFrame
	if i := s.ctrl.CurrentIndex(); i >= 0 && i < len(targets) {
		tf := targets[i]
		current = &tf
	}

	return protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		SectorID:        s.sector.Sector(),
		Player: protocol.PlayerFrame{
			Position: s.playerPos.Array(),
			Warmup:   nowTick < s.cfg.Tune.WarmupTicks(),
		},
		Target:  current,
		Targets: targets,
		Events:  s.takeEvents(),
		HUD:     s.takeHUD(),
	}
}

func (s *Ship) targetFrame(e *targeting.Entry) protocol.TargetFrame {
	var status diplomacy.Status
	wire := string(galaxy.WireUnknown)
	switch {
	case e.IsWaypoint:
		status = s.dipl.Resolve(diplomacy.Subject{IsWaypoint: true}, true)
		wire = string(galaxy.WireDiamond)
	case e.Object != nil:
		status = s.dipl.ResolveObject(e.Object, s.disc.IsDiscovered(e.ID))
		wire = string(e.Object.Wireframe)
	default:
		// Cached entry: the catalog handle is gone, resolve from the copy.
		status = s.dipl.Resolve(diplomacy.Subject{
			Type:    galaxy.ObjectType(e.Kind),
			Faction: e.Faction,
		}, true)
	}

	return protocol.TargetFrame{
		ID:        e.ID,
		Name:      e.Name,
		Kind:      e.Kind,
		Faction:   e.Faction,
		Position:  e.Position.Array(),
		Distance:  e.Distance,
		Waypoint:  e.IsWaypoint,
		Cached:    e.IsCached,
		Diplomacy: string(status),
		Color:     diplomacy.ColorOf(status),
		Wireframe: wire,
	}
}
