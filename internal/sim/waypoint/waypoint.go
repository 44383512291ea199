package waypoint

import (
	"planetz.game/internal/sim/galaxy"
)

// Kind classifies a waypoint.
type Kind string

const (
	KindNavigation Kind = "navigation"
	KindObjective  Kind = "objective"
	KindCheckpoint Kind = "checkpoint"
)

// Status is the waypoint lifecycle state.
//
// inactive -> active -> {triggered -> completed, interrupted -> active, expired}
// completed and expired are terminal. interrupted is reached only via the
// target controller.
type Status string

const (
	StatusInactive    Status = "inactive"
	StatusActive      Status = "active"
	StatusTriggered   Status = "triggered"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
	StatusExpired     Status = "expired"
)

// TriggerSpec describes when a waypoint fires (e.g. proximity radius).
type TriggerSpec struct {
	Type   string  `json:"type"`
	Radius float64 `json:"radius,omitempty"`
}

// ActionSpec describes what happens when a waypoint triggers.
type ActionSpec struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Waypoint is a virtual (non-physical) target owned by a mission. Waypoint
// ids live in their own "wp_" namespace, disjoint from catalog ids by
// construction.
type Waypoint struct {
	ID       string
	Name     string
	Position galaxy.Vec3
	Kind     Kind
	Status   Status
	Triggers []TriggerSpec
	Actions  []ActionSpec

	MissionID string
}

// Spec is the mission engine's creation request.
type Spec struct {
	Name      string
	Position  galaxy.Vec3
	Kind      Kind
	Triggers  []TriggerSpec
	Actions   []ActionSpec
	MissionID string
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}
