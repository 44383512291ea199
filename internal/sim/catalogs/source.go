package catalogs

import (
	"fmt"

	"planetz.game/internal/sim/galaxy"
)

// SectorSource adapts the static sector content to the galaxy.Source
// contract the object catalog loads from. A procedural generator would
// satisfy the same interface.
func (c *Catalogs) SectorSource() galaxy.Source {
	return sectorSource{cats: c}
}

type sectorSource struct {
	cats *Catalogs
}

func (s sectorSource) Generate(sectorID string) ([]galaxy.Object, error) {
	def, ok := s.cats.Sectors.ByID[sectorID]
	if !ok {
		return nil, fmt.Errorf("%w: no content for sector %s", galaxy.ErrCatalogMissing, sectorID)
	}
	out := make([]galaxy.Object, 0, len(def.Objects))
	for _, o := range def.Objects {
		wire := galaxy.Wireframe(o.Wireframe)
		if wire == "" {
			wire = galaxy.WireUnknown
		}
		out = append(out, galaxy.Object{
			ID:        o.ID,
			Name:      o.Name,
			Type:      galaxy.ObjectType(o.Type),
			Faction:   o.Faction,
			Position:  galaxy.FromArray(o.Position),
			Wireframe: wire,
			Diplomacy: o.Diplomacy,
		})
	}
	return out, nil
}
