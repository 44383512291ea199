package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Sector/catalog load invariants.
	ErrCatalogMissing   = "E_CATALOG_MISSING"
	ErrCatalogDupID     = "E_CATALOG_DUP_ID"
	ErrCatalogImmutable = "E_CATALOG_IMMUTABLE"

	// Persistence.
	ErrDiscoveryLoadCorrupt = "E_DISCOVERY_LOAD_CORRUPT"

	// Waypoint state machine.
	ErrWaypointIllegalTransition = "E_WAYPOINT_ILLEGAL_TRANSITION"

	// Targeting.
	ErrTargetingWarmup     = "E_TARGETING_WARMUP"
	ErrTargetNotFound      = "E_TARGET_NOT_FOUND"
	ErrTargetComputerDown  = "E_TARGET_COMPUTER_DOWN"
	ErrSectorContamination = "E_SECTOR_CONTAMINATION"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:           {},
	ErrCatalogMissing:            {},
	ErrCatalogDupID:              {},
	ErrCatalogImmutable:          {},
	ErrDiscoveryLoadCorrupt:      {},
	ErrWaypointIllegalTransition: {},
	ErrTargetingWarmup:           {},
	ErrTargetNotFound:            {},
	ErrTargetComputerDown:        {},
	ErrSectorContamination:       {},
	ErrInternal:                  {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
