package galaxy

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrCatalogMissing   = errors.New("catalog missing")
	ErrCatalogDupID     = errors.New("catalog duplicate id")
	ErrCatalogImmutable = errors.New("catalog immutable")
)

// Source produces the raw object set for a sector. The procedural generator
// and the static content loader both satisfy it.
type Source interface {
	Generate(sectorID string) ([]Object, error)
}

// Catalog is the frozen per-sector object database. Once LoadSector returns,
// the catalog never changes; it is safe to share by reference.
type Catalog struct {
	sector string
	byID   map[string]Object // keyed by normalized id
	order  []string          // canonical ids, sorted
	frozen bool
}

// LoadSector builds a frozen catalog for sectorID from src.
// Fails with ErrCatalogMissing when the source has no output for the sector
// and with ErrCatalogDupID when two objects normalize to the same id.
func LoadSector(src Source, sectorID string) (*Catalog, error) {
	objs, err := src.Generate(sectorID)
	if err != nil {
		return nil, fmt.Errorf("sector %s: %w", sectorID, err)
	}
	if objs == nil {
		return nil, fmt.Errorf("sector %s: %w", sectorID, ErrCatalogMissing)
	}

	c := &Catalog{
		sector: sectorID,
		byID:   make(map[string]Object, len(objs)),
	}
	for _, o := range objs {
		if err := c.Add(o); err != nil {
			return nil, fmt.Errorf("sector %s: %w", sectorID, err)
		}
	}
	sort.Strings(c.order)
	c.frozen = true
	return c, nil
}

// Add ingests one object. After LoadSector has returned the catalog is
// frozen and Add fails with ErrCatalogImmutable.
func (c *Catalog) Add(o Object) error {
	if c.frozen {
		return ErrCatalogImmutable
	}
	if o.ID == "" {
		return fmt.Errorf("object with empty id (name %q)", o.Name)
	}
	if o.Name == "" {
		return fmt.Errorf("object %s: empty name", o.ID)
	}
	if !knownType(o.Type) {
		return fmt.Errorf("object %s: unknown type %q", o.ID, o.Type)
	}
	if !knownWireframe(o.Wireframe) {
		o.Wireframe = WireUnknown
	}
	key := NormalizeID(o.ID)
	if _, dup := c.byID[key]; dup {
		return fmt.Errorf("%w: %s", ErrCatalogDupID, o.ID)
	}
	c.byID[key] = o
	c.order = append(c.order, o.ID)
	return nil
}

func (c *Catalog) Sector() string { return c.sector }

func (c *Catalog) Len() int { return len(c.byID) }

// Get looks up an object by id, case-insensitively. Returns nil when absent.
func (c *Catalog) Get(id string) *Object {
	o, ok := c.byID[NormalizeID(id)]
	if !ok {
		return nil
	}
	return &o
}

// IDs returns the canonical ids in stable (sorted) order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Objects returns all objects in stable id order.
func (c *Catalog) Objects() []Object {
	out := make([]Object, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[NormalizeID(id)])
	}
	return out
}

// ListByType returns objects of one type in stable id order.
func (c *Catalog) ListByType(t ObjectType) []Object {
	var out []Object
	for _, id := range c.order {
		o := c.byID[NormalizeID(id)]
		if o.Type == t {
			out = append(out, o)
		}
	}
	return out
}
