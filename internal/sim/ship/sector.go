package ship

import (
	"fmt"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/discovery"
	"planetz.game/internal/sim/galaxy"
)

// warpTo swaps the loaded sector. The order is load-bearing: the new catalog
// must be resident and discovery rescoped before the first rebuild, so no
// frame ever mixes sectors. A failed load leaves the old sector intact.
func (s *Ship) warpTo(sectorID string, arrival *galaxy.Vec3, nowTick uint64) error {
	next, err := galaxy.LoadSector(s.src, sectorID)
	if err != nil {
		return fmt.Errorf("warp: %w", err)
	}
	if next.Sector() == s.sector.Sector() {
		return nil
	}

	old := s.sector.Sector()
	s.audit(nowTick, "WARP", "", old+" -> "+next.Sector())

	// Drop the selection and release the interruption slot before any new
	// state becomes visible.
	s.ctrl.OnSectorChanged(next.Sector())

	s.list.Clear()
	s.cached = nil
	s.destroyed = map[string]bool{}

	s.sector = next
	s.disc.ScopeTo(next.Sector())
	if arrival != nil {
		s.playerPos = *arrival
	} else {
		s.playerPos = galaxy.Vec3{}
	}

	s.seedDiscovery()
	s.rebuildNeeded = true

	s.pushEvent(protocol.Event{
		"type":   protocol.EvSectorReady,
		"sector": next.Sector(),
	})
	s.pushHUD("SECTOR " + next.Sector() + " — Navigation ready")
	return nil
}

// seedDiscovery applies the on-load discovery policy for the current sector:
// a first visit may reveal everything (debug / story sectors) or just the
// navigation beacons.
func (s *Ship) seedDiscovery() {
	nowTick := s.tick.Load()

	if s.cfg.Tune.DiscoverAllOnLoad {
		for _, o := range s.sector.Objects() {
			if added, _ := s.disc.Discover(o.ID, discovery.MethodFirstVisit, true); added {
				s.audit(nowTick, "DISCOVER", o.ID, "first_visit")
			}
		}
		return
	}
	if !s.cfg.Tune.AutoDiscoverBeacons {
		return
	}
	for _, o := range s.sector.ListByType(galaxy.TypeBeacon) {
		if added, _ := s.disc.Discover(o.ID, discovery.MethodSystemFix, true); added {
			s.audit(nowTick, "DISCOVER", o.ID, "system_fix")
		}
	}
}
