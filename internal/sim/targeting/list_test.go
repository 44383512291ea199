package targeting

import (
	"testing"

	"planetz.game/internal/sim/discovery"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/waypoint"
)

type sliceSource map[string][]galaxy.Object

func (s sliceSource) Generate(sectorID string) ([]galaxy.Object, error) {
	objs, ok := s[sectorID]
	if !ok {
		return nil, galaxy.ErrCatalogMissing
	}
	return objs, nil
}

func fixtureCatalog(t *testing.T) *galaxy.Catalog {
	t.Helper()
	src := sliceSource{
		"A0": {
			{ID: "A0_star", Name: "Sol", Type: galaxy.TypeStar, Position: galaxy.V3(0, 0, 0), Wireframe: galaxy.WireStarBurst},
			{ID: "A0_terra_prime", Name: "Terra Prime", Type: galaxy.TypePlanet, Faction: "Terran Republic Alliance", Position: galaxy.V3(149.6, 0, 0), Wireframe: galaxy.WireSphere},
			{ID: "A0_enemy_drone", Name: "Raider Drone", Type: galaxy.TypeShip, Faction: "Crimson Raider Clans", Position: galaxy.V3(50, 0, 0), Wireframe: galaxy.WireIcosahedron},
			{ID: "A0_hermes_station", Name: "Hermes Station", Type: galaxy.TypeStation, Faction: "Free Trader Consortium", Position: galaxy.V3(300, 0, 0), Wireframe: galaxy.WireOctahedron},
		},
	}
	cat, err := galaxy.LoadSector(src, "A0")
	if err != nil {
		t.Fatalf("LoadSector: %v", err)
	}
	return cat
}

func discoverAll(cat *galaxy.Catalog) *discovery.Store {
	disc := discovery.NewStore(nil)
	disc.ScopeTo(cat.Sector())
	for _, id := range cat.IDs() {
		disc.Discover(id, discovery.MethodSystemFix, true)
	}
	return disc
}

func TestRebuild_DiscoveredOnlySortedByDistance(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discovery.NewStore(nil)
	disc.ScopeTo("A0")
	disc.Discover("A0_terra_prime", discovery.MethodProximity, true)
	disc.Discover("A0_enemy_drone", discovery.MethodProximity, true)

	l := NewList()
	l.Rebuild(cat, disc, waypoint.NewStore(), galaxy.V3(0, 0, 0), nil)

	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2 (undiscovered must be excluded)", l.Len())
	}
	// Drone at 50 before planet at 149.6.
	if l.At(0).ID != "A0_enemy_drone" || l.At(1).ID != "A0_terra_prime" {
		t.Fatalf("order = %s, %s", l.At(0).ID, l.At(1).ID)
	}
}

func TestRebuild_IncludesActiveAndInterruptedWaypoints(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discoverAll(cat)
	wps := waypoint.NewStore()
	act := wps.Create(waypoint.Spec{Name: "Nav A", Position: galaxy.V3(10, 0, 0)})
	intr := wps.Create(waypoint.Spec{Name: "Nav B", Position: galaxy.V3(20, 0, 0)})
	done := wps.Create(waypoint.Spec{Name: "Nav C", Position: galaxy.V3(30, 0, 0)})
	if err := wps.Interrupt(intr.ID); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
	if err := wps.Expire(done.ID); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	l := NewList()
	l.Rebuild(cat, disc, wps, galaxy.V3(0, 0, 0), nil)

	if i := l.IndexOf(act.ID); i < 0 {
		t.Fatalf("active waypoint missing")
	}
	if i := l.IndexOf(intr.ID); i < 0 {
		t.Fatalf("interrupted waypoint missing")
	}
	if i := l.IndexOf(done.ID); i >= 0 {
		t.Fatalf("expired waypoint present")
	}
}

func TestRebuild_DedupeOnIDNameWaypointFlag(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discoverAll(cat)
	wps := waypoint.NewStore()
	wp := wps.Create(waypoint.Spec{Name: "Nav A", Position: galaxy.V3(10, 0, 0)})

	l := NewList()
	l.Rebuild(cat, disc, wps, galaxy.V3(0, 0, 0), nil)
	before := l.Len()

	// Rebuilding must not duplicate the waypoint entry.
	l.Rebuild(cat, disc, wps, galaxy.V3(0, 0, 0), nil)
	if l.Len() != before {
		t.Fatalf("len changed across rebuilds: %d -> %d", before, l.Len())
	}
	count := 0
	for _, e := range l.Entries() {
		if e.ID == wp.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("waypoint appears %d times", count)
	}
}

func TestRebuild_ExcludeDestroyed(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discoverAll(cat)

	l := NewList()
	l.Rebuild(cat, disc, waypoint.NewStore(), galaxy.V3(0, 0, 0), map[string]bool{
		galaxy.NormalizeID("A0_enemy_drone"): true,
	})
	if l.IndexOf("A0_enemy_drone") >= 0 {
		t.Fatalf("destroyed object resurrected by rebuild")
	}
	if l.Len() != 3 {
		t.Fatalf("len = %d", l.Len())
	}
}

func TestRefreshDistances_NoReorder(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discoverAll(cat)

	l := NewList()
	l.Rebuild(cat, disc, waypoint.NewStore(), galaxy.V3(0, 0, 0), nil)
	orderBefore := make([]string, 0, l.Len())
	for _, e := range l.Entries() {
		orderBefore = append(orderBefore, e.ID)
	}

	// Move the player far out: distances change, order must not.
	l.RefreshDistances(galaxy.V3(1000, 0, 0))
	for i, e := range l.Entries() {
		if e.ID != orderBefore[i] {
			t.Fatalf("order changed at %d: %s != %s", i, e.ID, orderBefore[i])
		}
	}
	if got := l.At(l.IndexOf("A0_star")).Distance; got != 1000 {
		t.Fatalf("star distance = %v", got)
	}
}

func TestExtendWithCached(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discoverAll(cat)

	l := NewList()
	l.Rebuild(cat, disc, waypoint.NewStore(), galaxy.V3(0, 0, 0), nil)
	n := l.Len()

	l.ExtendWithCached([]Entry{
		{ID: "A0_star", Name: "Sol"}, // already present, skipped
		{ID: "A0_outpost_9", Name: "Outpost 9", Kind: string(galaxy.TypeStation), Position: galaxy.V3(9000, 0, 0)},
	})
	if l.Len() != n+1 {
		t.Fatalf("len = %d, want %d", l.Len(), n+1)
	}
	e := l.At(l.IndexOf("A0_outpost_9"))
	if e == nil || !e.IsCached {
		t.Fatalf("cached entry = %+v", e)
	}
}

func TestIndexOf_CaseInsensitive(t *testing.T) {
	cat := fixtureCatalog(t)
	disc := discoverAll(cat)
	l := NewList()
	l.Rebuild(cat, disc, waypoint.NewStore(), galaxy.V3(0, 0, 0), nil)

	if l.IndexOf("a0_TERRA_PRIME") < 0 {
		t.Fatalf("case-insensitive lookup failed")
	}
	if l.IndexOf("B1_anything") >= 0 {
		t.Fatalf("foreign id found")
	}
}
