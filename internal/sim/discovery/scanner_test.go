package discovery

import (
	"testing"

	"planetz.game/internal/sim/galaxy"
)

type sliceSource map[string][]galaxy.Object

func (s sliceSource) Generate(sectorID string) ([]galaxy.Object, error) {
	objs, ok := s[sectorID]
	if !ok {
		return nil, galaxy.ErrCatalogMissing
	}
	return objs, nil
}

func scannerCatalog(t *testing.T) *galaxy.Catalog {
	t.Helper()
	src := sliceSource{
		"A0": {
			{ID: "A0_near", Name: "Near", Type: galaxy.TypeStation, Position: galaxy.V3(100, 0, 0), Wireframe: galaxy.WireOctahedron},
			{ID: "A0_edge", Name: "Edge", Type: galaxy.TypeBeacon, Position: galaxy.V3(150, 0, 0), Wireframe: galaxy.WireDiamond},
			{ID: "A0_far", Name: "Far", Type: galaxy.TypePlanet, Position: galaxy.V3(150.01, 0, 0), Wireframe: galaxy.WireSphere},
		},
	}
	cat, err := galaxy.LoadSector(src, "A0")
	if err != nil {
		t.Fatalf("LoadSector: %v", err)
	}
	return cat
}

func TestScan_RadiusBoundaryInclusive(t *testing.T) {
	cat := scannerCatalog(t)
	store := NewStore(nil)
	store.ScopeTo("A0")
	sc := NewScanner(150, nil)

	found := sc.Scan(cat, store, galaxy.V3(0, 0, 0))
	if len(found) != 2 {
		t.Fatalf("found %d objects, want 2: %+v", len(found), found)
	}
	if !store.IsDiscovered("A0_near") || !store.IsDiscovered("A0_edge") {
		t.Fatalf("in-range objects not discovered")
	}
	if store.IsDiscovered("A0_far") {
		t.Fatalf("object at 150.01 discovered with radius 150")
	}
}

func TestScan_SecondTickIsQuiet(t *testing.T) {
	cat := scannerCatalog(t)
	store := NewStore(nil)
	store.ScopeTo("A0")
	sc := NewScanner(150, nil)

	first := sc.Scan(cat, store, galaxy.V3(0, 0, 0))
	if len(first) == 0 {
		t.Fatalf("first scan found nothing")
	}
	second := sc.Scan(cat, store, galaxy.V3(0, 0, 0))
	if len(second) != 0 {
		t.Fatalf("second scan re-discovered: %+v", second)
	}
}

func TestScan_PlayerMovesIntoRange(t *testing.T) {
	cat := scannerCatalog(t)
	store := NewStore(nil)
	store.ScopeTo("A0")
	sc := NewScanner(150, nil)

	sc.Scan(cat, store, galaxy.V3(0, 0, 0))
	if store.IsDiscovered("A0_far") {
		t.Fatalf("far object discovered prematurely")
	}
	found := sc.Scan(cat, store, galaxy.V3(1, 0, 0))
	if len(found) != 1 || found[0].ID != "A0_far" {
		t.Fatalf("found = %+v", found)
	}
}
