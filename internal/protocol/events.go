package protocol

// Event is a loosely-typed tick event, delivered in FRAME and via EVENT_BATCH.
// Every event carries "t" (tick) and "type".
type Event map[string]interface{}

// Event types emitted by the core.
const (
	EvDiscovered          = "DISCOVERED"
	EvTargetChanged       = "TARGET_CHANGED"
	EvTargetDestroyed     = "TARGET_DESTROYED"
	EvWaypointInterrupted = "WAYPOINT_INTERRUPTED"
	EvWaypointResumed     = "WAYPOINT_RESUMED"
	EvWaypointCompleted   = "WAYPOINT_COMPLETED"
	EvWaypointExpired     = "WAYPOINT_EXPIRED"
	EvWaypointAction      = "WAYPOINT_ACTION"
	EvSectorReady         = "SECTOR_READY"
	EvHUDMessage          = "HUD_MESSAGE"
)
