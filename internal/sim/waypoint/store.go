package waypoint

import (
	"errors"
	"fmt"
	"sort"

	"planetz.game/internal/sim/galaxy"
)

var ErrIllegalTransition = errors.New("illegal waypoint transition")
var ErrNotFound = errors.New("waypoint not found")

// Store owns every waypoint's lifecycle. Single-writer from the sim loop.
type Store struct {
	byID    map[string]*Waypoint
	order   []string // creation order
	nextNum uint64
}

func NewStore() *Store {
	return &Store{byID: map[string]*Waypoint{}}
}

// Create registers a new waypoint with a fresh wp_ id, immediately active.
func (s *Store) Create(spec Spec) *Waypoint {
	s.nextNum++
	wp := &Waypoint{
		ID:        fmt.Sprintf("wp_%06d", s.nextNum),
		Name:      spec.Name,
		Position:  spec.Position,
		Kind:      spec.Kind,
		Status:    StatusActive,
		Triggers:  spec.Triggers,
		Actions:   spec.Actions,
		MissionID: spec.MissionID,
	}
	if wp.Kind == "" {
		wp.Kind = KindNavigation
	}
	if wp.Name == "" {
		wp.Name = wp.ID
	}
	s.byID[wp.ID] = wp
	s.order = append(s.order, wp.ID)
	return wp
}

func (s *Store) Get(id string) *Waypoint { return s.byID[id] }

// Len reports the number of registered waypoints in any status.
func (s *Store) Len() int { return len(s.byID) }

// transition table: status -> allowed next statuses.
var transitions = map[Status][]Status{
	StatusInactive:    {StatusActive},
	StatusActive:      {StatusTriggered, StatusInterrupted, StatusExpired},
	StatusTriggered:   {StatusCompleted},
	StatusInterrupted: {StatusActive},
}

func (s *Store) move(id string, to Status) (*Waypoint, error) {
	wp := s.byID[id]
	if wp == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, next := range transitions[wp.Status] {
		if next == to {
			wp.Status = to
			return wp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s -> %s", ErrIllegalTransition, id, wp.Status, to)
}

func (s *Store) Activate(id string) error  { _, err := s.move(id, StatusActive); return err }
func (s *Store) Trigger(id string) error   { _, err := s.move(id, StatusTriggered); return err }
func (s *Store) Interrupt(id string) error { _, err := s.move(id, StatusInterrupted); return err }
func (s *Store) Expire(id string) error    { _, err := s.move(id, StatusExpired); return err }

// Resume returns an interrupted waypoint to active.
func (s *Store) Resume(id string) error { _, err := s.move(id, StatusActive); return err }

// Complete finishes a triggered waypoint and removes it from the store.
func (s *Store) Complete(id string) error {
	if _, err := s.move(id, StatusCompleted); err != nil {
		return err
	}
	s.remove(id)
	return nil
}

// Cancel removes a waypoint outright regardless of status (mission
// cancellation path).
func (s *Store) Cancel(id string) bool {
	if s.byID[id] == nil {
		return false
	}
	s.remove(id)
	return true
}

func (s *Store) remove(id string) {
	delete(s.byID, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ActiveWaypoints returns waypoints in status active, creation order.
func (s *Store) ActiveWaypoints() []*Waypoint {
	return s.withStatus(StatusActive)
}

// Listed returns waypoints that belong in the target list: active or
// interrupted, creation order.
func (s *Store) Listed() []*Waypoint {
	var out []*Waypoint
	for _, id := range s.order {
		wp := s.byID[id]
		if wp.Status == StatusActive || wp.Status == StatusInterrupted {
			out = append(out, wp)
		}
	}
	return out
}

func (s *Store) withStatus(st Status) []*Waypoint {
	var out []*Waypoint
	for _, id := range s.order {
		if wp := s.byID[id]; wp.Status == st {
			out = append(out, wp)
		}
	}
	return out
}

// NextActive picks the waypoint for W-key cycling: nearest active waypoint
// to playerPos, ties broken by id. Returns nil when none are active.
func (s *Store) NextActive(playerPos galaxy.Vec3) *Waypoint {
	active := s.ActiveWaypoints()
	if len(active) == 0 {
		return nil
	}
	sort.Slice(active, func(i, j int) bool {
		di := galaxy.Dist(active[i].Position, playerPos)
		dj := galaxy.Dist(active[j].Position, playerPos)
		if di != dj {
			return di < dj
		}
		return active[i].ID < active[j].ID
	})
	return active[0]
}

// NextActiveAfter cycles: the nearest active waypoint strictly after
// currentID in the NextActive ordering, wrapping around. Used for Shift-W.
func (s *Store) NextActiveAfter(playerPos galaxy.Vec3, currentID string) *Waypoint {
	active := s.ActiveWaypoints()
	if len(active) == 0 {
		return nil
	}
	sort.Slice(active, func(i, j int) bool {
		di := galaxy.Dist(active[i].Position, playerPos)
		dj := galaxy.Dist(active[j].Position, playerPos)
		if di != dj {
			return di < dj
		}
		return active[i].ID < active[j].ID
	})
	for i, wp := range active {
		if wp.ID == currentID {
			return active[(i+1)%len(active)]
		}
	}
	return active[0]
}

// Export copies all waypoints for persistence, creation order, including
// interruption status.
func (s *Store) Export() []Waypoint {
	out := make([]Waypoint, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Import replaces the store contents. The id counter advances past every
// imported wp_ id so future Create calls never collide.
func (s *Store) Import(wps []Waypoint) {
	s.byID = map[string]*Waypoint{}
	s.order = nil
	for i := range wps {
		wp := wps[i]
		if wp.ID == "" {
			continue
		}
		cp := wp
		s.byID[cp.ID] = &cp
		s.order = append(s.order, cp.ID)
		var n uint64
		if _, err := fmt.Sscanf(cp.ID, "wp_%d", &n); err == nil && n > s.nextNum {
			s.nextNum = n
		}
	}
}
