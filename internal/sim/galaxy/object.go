package galaxy

import "strings"

// ObjectType classifies a catalog object.
type ObjectType string

const (
	TypeStar    ObjectType = "star"
	TypePlanet  ObjectType = "planet"
	TypeMoon    ObjectType = "moon"
	TypeStation ObjectType = "station"
	TypeBeacon  ObjectType = "beacon"
	TypeShip    ObjectType = "ship"
	TypeDebris  ObjectType = "debris"
)

// Wireframe is the reticle geometry tag used by the renderer.
type Wireframe string

const (
	WireSphere      Wireframe = "sphere"
	WireIcosahedron Wireframe = "icosahedron"
	WireOctahedron  Wireframe = "octahedron"
	WireDiamond     Wireframe = "diamond"
	WireStarBurst   Wireframe = "star-burst"
	WireUnknown     Wireframe = "unknown"
)

// Object is one immutable catalog entry. Ids follow the "<SECTOR>_<slug>"
// convention; the sector prefix makes cross-sector leaks detectable.
type Object struct {
	ID        string
	Name      string
	Type      ObjectType
	Faction   string
	Position  Vec3
	Wireframe Wireframe

	// Explicit diplomacy override; empty means "derive from faction/type".
	Diplomacy string
}

// NormalizeID returns the canonical lookup key for an object id.
// Canonical form preserves the ingested casing; matching is case-insensitive.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SectorOf extracts the sector prefix from a catalog id ("A0_star" -> "A0").
// Returns "" when the id has no prefix.
func SectorOf(id string) string {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return ""
}

func knownType(t ObjectType) bool {
	switch t {
	case TypeStar, TypePlanet, TypeMoon, TypeStation, TypeBeacon, TypeShip, TypeDebris:
		return true
	}
	return false
}

func knownWireframe(w Wireframe) bool {
	switch w {
	case WireSphere, WireIcosahedron, WireOctahedron, WireDiamond, WireStarBurst, WireUnknown:
		return true
	}
	return false
}
