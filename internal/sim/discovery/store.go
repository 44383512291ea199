package discovery

import (
	"log"
	"sort"
	"time"

	"planetz.game/internal/sim/galaxy"
)

// Method records how an object was discovered.
type Method string

const (
	MethodProximity  Method = "proximity"
	MethodManual     Method = "manual"
	MethodSystemFix  Method = "system_fix"
	MethodFirstVisit Method = "first_visit"
)

// Record is the persisted metadata for one discovered object.
type Record struct {
	ObjectID        string    `json:"object_id"` // canonical form
	DiscoveredAt    time.Time `json:"discovered_at"`
	Method          Method    `json:"method"`
	FirstDiscovered bool      `json:"first_discovered"`
	Sector          string    `json:"sector"`
}

// Store owns the multi-sector map of discovered object ids. Membership is a
// set with O(1) lookup; the current sector scope controls which view
// IsDiscovered and DiscoveredIDs answer for. Single-writer: the scanner and
// the explicit discover paths mutate it, observers read through accessors.
type Store struct {
	sector   string
	bySector map[string]map[string]Record // normalized id -> record

	logger *log.Logger
	now    func() time.Time
}

func NewStore(logger *log.Logger) *Store {
	return &Store{
		bySector: map[string]map[string]Record{},
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// ScopeTo switches the store's current-sector view. Records for other
// sectors are retained untouched.
func (s *Store) ScopeTo(sector string) { s.sector = sector }

func (s *Store) Sector() string { return s.sector }

// IsDiscovered reports membership in the current sector's set,
// case-insensitively.
func (s *Store) IsDiscovered(id string) bool {
	m := s.bySector[s.sector]
	if m == nil {
		return false
	}
	_, ok := m[galaxy.NormalizeID(id)]
	return ok
}

// Discover inserts id into the current sector's set. Idempotent: a second
// insert returns added=false and leaves the original record in place.
func (s *Store) Discover(id string, method Method, firstDiscovered bool) (added bool, rec Record) {
	key := galaxy.NormalizeID(id)
	if key == "" {
		s.warnf("discovery: empty object id (method %s), skipping", method)
		return false, Record{}
	}
	m := s.bySector[s.sector]
	if m == nil {
		m = map[string]Record{}
		s.bySector[s.sector] = m
	}
	if existing, ok := m[key]; ok {
		return false, existing
	}
	rec = Record{
		ObjectID:        id,
		DiscoveredAt:    s.now().UTC(),
		Method:          method,
		FirstDiscovered: firstDiscovered,
		Sector:          s.sector,
	}
	m[key] = rec
	return true, rec
}

// Get returns the record for id in the current sector, if present.
func (s *Store) Get(id string) (Record, bool) {
	m := s.bySector[s.sector]
	if m == nil {
		return Record{}, false
	}
	rec, ok := m[galaxy.NormalizeID(id)]
	return rec, ok
}

// DiscoveredIDs returns the canonical ids discovered in the current sector,
// sorted for stable iteration.
func (s *Store) DiscoveredIDs() []string {
	return s.SectorIDs(s.sector)
}

// SectorIDs returns the canonical ids discovered in any sector, sorted.
func (s *Store) SectorIDs(sector string) []string {
	m := s.bySector[sector]
	out := make([]string, 0, len(m))
	for _, rec := range m {
		out = append(out, rec.ObjectID)
	}
	sort.Strings(out)
	return out
}

// Count reports the current sector's set size.
func (s *Store) Count() int { return len(s.bySector[s.sector]) }

// Reset clears one sector's view. Other sectors are retained.
func (s *Store) Reset(sector string) {
	delete(s.bySector, sector)
}

// Sectors lists the sectors that have at least one record, sorted.
func (s *Store) Sectors() []string {
	out := make([]string, 0, len(s.bySector))
	for sec, m := range s.bySector {
		if len(m) > 0 {
			out = append(out, sec)
		}
	}
	sort.Strings(out)
	return out
}

// Export copies the full multi-sector map for persistence, sectors and
// records in stable order.
func (s *Store) Export() map[string][]Record {
	out := make(map[string][]Record, len(s.bySector))
	for sec, m := range s.bySector {
		if len(m) == 0 {
			continue
		}
		recs := make([]Record, 0, len(m))
		for _, rec := range m {
			recs = append(recs, rec)
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].ObjectID < recs[j].ObjectID })
		out[sec] = recs
	}
	return out
}

// Import replaces the store's contents with a persisted multi-sector map.
// Records with empty ids are logged and skipped; Import never fails.
func (s *Store) Import(data map[string][]Record) {
	s.bySector = map[string]map[string]Record{}
	for sec, recs := range data {
		m := map[string]Record{}
		for _, rec := range recs {
			key := galaxy.NormalizeID(rec.ObjectID)
			if key == "" {
				s.warnf("discovery import: empty object id in sector %s, skipping", sec)
				continue
			}
			if rec.Sector == "" {
				rec.Sector = sec
			}
			m[key] = rec
		}
		if len(m) > 0 {
			s.bySector[sec] = m
		}
	}
}

func (s *Store) warnf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
