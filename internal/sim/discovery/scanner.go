package discovery

import (
	"log"

	"planetz.game/internal/sim/galaxy"
)

// Scanner promotes catalog objects into the store once the player comes
// within range. It is ticked by the sim loop; a single Scan call covers one
// tick and batches every promotion it made.
type Scanner struct {
	Radius float64

	logger *log.Logger
}

func NewScanner(radius float64, logger *log.Logger) *Scanner {
	return &Scanner{Radius: radius, logger: logger}
}

// Scan checks every undiscovered catalog object against the discovery
// radius (inclusive: an object exactly on the boundary is discovered) and
// inserts hits with method proximity. Returns the newly discovered objects
// so the caller can emit events and invalidate the target list once.
// Bad entries are logged and skipped; Scan never aborts.
func (sc *Scanner) Scan(cat *galaxy.Catalog, store *Store, playerPos galaxy.Vec3) []galaxy.Object {
	if cat == nil || store == nil {
		return nil
	}
	var found []galaxy.Object
	for _, o := range cat.Objects() {
		if o.ID == "" {
			sc.warnf("scanner: catalog object with empty id (name %q), skipping", o.Name)
			continue
		}
		if store.IsDiscovered(o.ID) {
			continue
		}
		if galaxy.Dist(o.Position, playerPos) > sc.Radius {
			continue
		}
		added, _ := store.Discover(o.ID, MethodProximity, true)
		if added {
			found = append(found, o)
		}
	}
	return found
}

func (sc *Scanner) warnf(format string, args ...interface{}) {
	if sc.logger != nil {
		sc.logger.Printf(format, args...)
	}
}
