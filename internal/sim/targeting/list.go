package targeting

import (
	"sort"

	"planetz.game/internal/sim/discovery"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/waypoint"
)

// Entry is the view-model for one targetable entity. Entries are ephemeral:
// the list rebuilds them whenever it is invalidated.
type Entry struct {
	ID       string
	Name     string
	Kind     string // galaxy object type, or "waypoint"
	Faction  string
	Position galaxy.Vec3
	Distance float64

	IsWaypoint bool
	IsCached   bool

	// Object is the catalog handle for physical entries; nil for waypoints.
	Object *galaxy.Object
}

const KindWaypoint = "waypoint"

func entryFromObject(o galaxy.Object, playerPos galaxy.Vec3) Entry {
	oc := o
	return Entry{
		ID:       o.ID,
		Name:     o.Name,
		Kind:     string(o.Type),
		Faction:  o.Faction,
		Position: o.Position,
		Distance: galaxy.Dist(o.Position, playerPos),
		Object:   &oc,
	}
}

func entryFromWaypoint(wp *waypoint.Waypoint, playerPos galaxy.Vec3) Entry {
	return Entry{
		ID:         wp.ID,
		Name:       wp.Name,
		Kind:       KindWaypoint,
		Position:   wp.Position,
		Distance:   galaxy.Dist(wp.Position, playerPos),
		IsWaypoint: true,
	}
}

type dedupeKey struct {
	id       string
	name     string
	waypoint bool
}

// List is the ordered set of targetable entities. It is rebuilt on demand
// and cycled in its fixed rebuild order until the next rebuild, so the
// player's Tab sequence stays stable between invalidations.
type List struct {
	entries []Entry
}

func NewList() *List { return &List{} }

// Rebuild clears the list, inserts an entry per discovered catalog object
// and per active/interrupted waypoint, dedupes on (id, name, waypoint flag),
// then sorts by ascending distance (ties by id, so rebuilds are stable).
// exclude holds normalized ids of destroyed objects; the catalog is
// immutable, so destruction is filtered here. exclude may be nil.
func (l *List) Rebuild(cat *galaxy.Catalog, disc *discovery.Store, wps *waypoint.Store, playerPos galaxy.Vec3, exclude map[string]bool) {
	l.entries = l.entries[:0]
	seen := map[dedupeKey]bool{}

	if cat != nil && disc != nil {
		for _, o := range cat.Objects() {
			if !disc.IsDiscovered(o.ID) {
				continue
			}
			if exclude[galaxy.NormalizeID(o.ID)] {
				continue
			}
			e := entryFromObject(o, playerPos)
			k := dedupeKey{id: galaxy.NormalizeID(e.ID), name: e.Name}
			if seen[k] {
				continue
			}
			seen[k] = true
			l.entries = append(l.entries, e)
		}
	}
	if wps != nil {
		for _, wp := range wps.Listed() {
			e := entryFromWaypoint(wp, playerPos)
			k := dedupeKey{id: galaxy.NormalizeID(e.ID), name: e.Name, waypoint: true}
			if seen[k] {
				continue
			}
			seen[k] = true
			l.entries = append(l.entries, e)
		}
	}

	sort.SliceStable(l.entries, func(i, j int) bool {
		if l.entries[i].Distance != l.entries[j].Distance {
			return l.entries[i].Distance < l.entries[j].Distance
		}
		return l.entries[i].ID < l.entries[j].ID
	})
}

// RefreshDistances recomputes Distance in place. It never reorders: order
// is fixed between rebuilds.
func (l *List) RefreshDistances(playerPos galaxy.Vec3) {
	for i := range l.entries {
		l.entries[i].Distance = galaxy.Dist(l.entries[i].Position, playerPos)
	}
}

// IndexOf finds an entry by id, case-insensitively. Returns -1 when absent.
func (l *List) IndexOf(id string) int {
	key := galaxy.NormalizeID(id)
	for i := range l.entries {
		if galaxy.NormalizeID(l.entries[i].ID) == key {
			return i
		}
	}
	return -1
}

// ExtendWithCached appends recently-seen out-of-range entries, marked
// cached, for manual-navigation cycling. Entries already present (by id)
// are skipped.
func (l *List) ExtendWithCached(cached []Entry) {
	for _, e := range cached {
		if l.IndexOf(e.ID) >= 0 {
			continue
		}
		e.IsCached = true
		l.entries = append(l.entries, e)
	}
}

// Append injects a single entry at the tail (waypoint injection path).
func (l *List) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Remove deletes the entry at index i, preserving order.
func (l *List) Remove(i int) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
}

func (l *List) Len() int { return len(l.entries) }

// At returns a pointer into the list; valid until the next rebuild.
func (l *List) At(i int) *Entry {
	if i < 0 || i >= len(l.entries) {
		return nil
	}
	return &l.entries[i]
}

// Entries returns a copy of the list in cycle order.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear drops every entry.
func (l *List) Clear() { l.entries = l.entries[:0] }
