package diplomacy

import (
	"log"

	"planetz.game/internal/sim/galaxy"
)

// Status is the discrete diplomacy bucket used to color and categorize a
// target.
type Status string

const (
	Friendly Status = "friendly"
	Neutral  Status = "neutral"
	Enemy    Status = "enemy"
	Unknown  Status = "unknown"
	Waypoint Status = "waypoint"
)

// Reticle/wireframe/arrow colors per status.
const (
	ColorEnemy    = "#ff3333"
	ColorNeutral  = "#ffff44"
	ColorFriendly = "#44ff44"
	ColorUnknown  = "#44ffff"
	ColorWaypoint = "#ff00ff"
)

func ColorOf(s Status) string {
	switch s {
	case Enemy:
		return ColorEnemy
	case Neutral:
		return ColorNeutral
	case Friendly:
		return ColorFriendly
	case Waypoint:
		return ColorWaypoint
	default:
		return ColorUnknown
	}
}

// ShipInfo is the nested live-ship view of a target (AI ships carry their
// own diplomacy).
type ShipInfo struct {
	Diplomacy string
}

// BodyInfo is the solar-body metadata fallback (planet/moon database rows).
type BodyInfo struct {
	Diplomacy string
	Faction   string
}

// Subject is the view of an object the resolver inspects. It is a closed
// struct rather than a property bag so the fallback chain is explicit.
type Subject struct {
	Type       galaxy.ObjectType
	IsWaypoint bool
	Diplomacy  string
	Faction    string
	Ship       *ShipInfo
	Body       *BodyInfo
}

// FromObject builds a Subject from a catalog object.
func FromObject(o *galaxy.Object) Subject {
	return Subject{
		Type:      o.Type,
		Diplomacy: o.Diplomacy,
		Faction:   o.Faction,
	}
}

// Resolver maps objects to diplomacy statuses. Pure and stateless apart from
// the faction table and the warn-once set.
type Resolver struct {
	factions map[string]Status
	logger   *log.Logger
	warned   map[string]bool
}

// NewResolver builds a resolver over a faction -> diplomacy table. Table
// values must be friendly/neutral/enemy; anything else is dropped with a
// warning. logger may be nil.
func NewResolver(table map[string]string, logger *log.Logger) *Resolver {
	r := &Resolver{
		factions: make(map[string]Status, len(table)),
		logger:   logger,
		warned:   map[string]bool{},
	}
	for faction, d := range table {
		switch Status(d) {
		case Friendly, Neutral, Enemy:
			r.factions[faction] = Status(d)
		default:
			r.warnf("faction table: %q has invalid diplomacy %q, ignoring", faction, d)
		}
	}
	return r
}

// Resolve implements the full fallback chain:
//  1. Stars are always neutral, ignoring every other field.
//  2. Undiscovered objects are unknown.
//  3. Waypoints are waypoint.
//  4. Explicit diplomacy, faction table, nested ship, body info, body faction.
//  5. Type defaults: station/planet/moon/beacon -> neutral, ship -> unknown,
//     else neutral.
//
// Unknown factions warn and fall through; Resolve never fails.
func (r *Resolver) Resolve(s Subject, discovered bool) Status {
	if s.Type == galaxy.TypeStar {
		return Neutral
	}
	if !discovered {
		return Unknown
	}
	if s.IsWaypoint {
		return Waypoint
	}

	if d, ok := parseStatus(s.Diplomacy); ok {
		return d
	}
	if d, ok := r.lookupFaction(s.Faction); ok {
		return d
	}
	if s.Ship != nil {
		if d, ok := parseStatus(s.Ship.Diplomacy); ok {
			return d
		}
	}
	if s.Body != nil {
		if d, ok := parseStatus(s.Body.Diplomacy); ok {
			return d
		}
		if d, ok := r.lookupFaction(s.Body.Faction); ok {
			return d
		}
	}

	switch s.Type {
	case galaxy.TypeStation, galaxy.TypePlanet, galaxy.TypeMoon, galaxy.TypeBeacon:
		return Neutral
	case galaxy.TypeShip:
		return Unknown
	default:
		return Neutral
	}
}

// ResolveObject is the common path for catalog objects.
func (r *Resolver) ResolveObject(o *galaxy.Object, discovered bool) Status {
	return r.Resolve(FromObject(o), discovered)
}

func (r *Resolver) lookupFaction(faction string) (Status, bool) {
	if faction == "" {
		return "", false
	}
	if d, ok := r.factions[faction]; ok {
		return d, true
	}
	if !r.warned[faction] {
		r.warned[faction] = true
		r.warnf("unknown faction %q, defaulting to neutral", faction)
	}
	return Neutral, true
}

func parseStatus(s string) (Status, bool) {
	switch Status(s) {
	case Friendly, Neutral, Enemy:
		return Status(s), true
	}
	return "", false
}

func (r *Resolver) warnf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
