package galaxy

import (
	"errors"
	"testing"
)

type sliceSource map[string][]Object

func (s sliceSource) Generate(sectorID string) ([]Object, error) {
	objs, ok := s[sectorID]
	if !ok {
		return nil, ErrCatalogMissing
	}
	return objs, nil
}

func testSource() sliceSource {
	return sliceSource{
		"A0": {
			{ID: "A0_star", Name: "Sol", Type: TypeStar, Position: V3(0, 0, 0), Wireframe: WireStarBurst},
			{ID: "A0_terra_prime", Name: "Terra Prime", Type: TypePlanet, Faction: "Terran Republic Alliance", Position: V3(149.6, 0, 0), Wireframe: WireSphere},
			{ID: "A0_luna", Name: "Luna", Type: TypeMoon, Position: V3(150, 0.4, 0), Wireframe: WireSphere},
		},
	}
}

func TestLoadSector_FreezesAndOrders(t *testing.T) {
	c, err := LoadSector(testSource(), "A0")
	if err != nil {
		t.Fatalf("LoadSector: %v", err)
	}
	if c.Sector() != "A0" {
		t.Fatalf("sector = %q", c.Sector())
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d", c.Len())
	}

	ids := c.IDs()
	want := []string{"A0_luna", "A0_star", "A0_terra_prime"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	if err := c.Add(Object{ID: "A0_new", Name: "New", Type: TypeBeacon}); !errors.Is(err, ErrCatalogImmutable) {
		t.Fatalf("Add after freeze = %v, want ErrCatalogImmutable", err)
	}
}

func TestLoadSector_MissingSector(t *testing.T) {
	_, err := LoadSector(testSource(), "Z9")
	if !errors.Is(err, ErrCatalogMissing) {
		t.Fatalf("err = %v, want ErrCatalogMissing", err)
	}
}

func TestLoadSector_DuplicateIDNormalized(t *testing.T) {
	src := sliceSource{
		"A0": {
			{ID: "A0_star", Name: "Sol", Type: TypeStar, Wireframe: WireStarBurst},
			{ID: "A0_STAR", Name: "Sol Again", Type: TypeStar, Wireframe: WireStarBurst},
		},
	}
	_, err := LoadSector(src, "A0")
	if !errors.Is(err, ErrCatalogDupID) {
		t.Fatalf("err = %v, want ErrCatalogDupID", err)
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	c, err := LoadSector(testSource(), "A0")
	if err != nil {
		t.Fatalf("LoadSector: %v", err)
	}
	o := c.Get("a0_TERRA_prime")
	if o == nil {
		t.Fatalf("Get returned nil")
	}
	if o.ID != "A0_terra_prime" {
		t.Fatalf("canonical id = %q", o.ID)
	}
	if c.Get("A0_missing") != nil {
		t.Fatalf("Get on absent id should return nil")
	}
}

func TestListByType(t *testing.T) {
	c, err := LoadSector(testSource(), "A0")
	if err != nil {
		t.Fatalf("LoadSector: %v", err)
	}
	stars := c.ListByType(TypeStar)
	if len(stars) != 1 || stars[0].ID != "A0_star" {
		t.Fatalf("stars = %+v", stars)
	}
	if got := c.ListByType(TypeDebris); len(got) != 0 {
		t.Fatalf("debris = %+v", got)
	}
}

func TestSectorOf(t *testing.T) {
	if s := SectorOf("A0_terra_prime"); s != "A0" {
		t.Fatalf("SectorOf = %q", s)
	}
	if s := SectorOf("noprefix"); s != "" {
		t.Fatalf("SectorOf = %q", s)
	}
}
