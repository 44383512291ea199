package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	Observer        bool   `json:"observer,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	ShipID          string `json:"ship_id"`
	SectorID        string `json:"sector_id"`

	TickRateHz int `json:"tick_rate_hz"`

	Catalogs CatalogDigests `json:"catalogs"`
}

// CatalogDigests lets clients cache static content by digest.
type CatalogDigests struct {
	SectorsDigest  string `json:"sectors_digest"`
	SectorCount    int    `json:"sector_count"`
	FactionsDigest string `json:"factions_digest"`
}

// Input commands (INPUT.command). These mirror the keyboard surface:
// Tab, Esc, W, Shift-W, chart clicks, nav UI close, warp.
const (
	CmdCycleTarget     = "CYCLE_TARGET"
	CmdClearTarget     = "CLEAR_TARGET"
	CmdSelectFromChart = "SELECT_FROM_CHART"
	CmdWaypointResume  = "WAYPOINT_RESUME"
	CmdWaypointCycle   = "WAYPOINT_CYCLE"
	CmdCloseNavUI      = "CLOSE_NAV_UI"
	CmdToggleComputer  = "TOGGLE_TARGET_COMPUTER"
	CmdSetPosition     = "SET_POSITION"
	CmdWarp            = "WARP"
)

// INPUT (client -> server)
type InputMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Command         string `json:"command"`

	// Command payloads; which ones apply depends on Command.
	TargetID string      `json:"target_id,omitempty"`
	SectorID string      `json:"sector_id,omitempty"`
	Position *[3]float64 `json:"position,omitempty"`
}

// FRAME (server -> client), one per tick per session.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	SectorID        string `json:"sector_id"`

	Player  PlayerFrame   `json:"player"`
	Target  *TargetFrame  `json:"target,omitempty"`
	Targets []TargetFrame `json:"targets"`

	Events []Event  `json:"events,omitempty"`
	HUD    []string `json:"hud,omitempty"`
}

type PlayerFrame struct {
	Position [3]float64 `json:"position"`
	Warmup   bool       `json:"warmup,omitempty"`
}

// TargetFrame is the render view of one target list entry.
type TargetFrame struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	Faction   string     `json:"faction,omitempty"`
	Position  [3]float64 `json:"position"`
	Distance  float64    `json:"distance"`
	Waypoint  bool       `json:"waypoint,omitempty"`
	Cached    bool       `json:"cached,omitempty"`
	Diplomacy string     `json:"diplomacy"`
	Color     string     `json:"color"`
	Wireframe string     `json:"wireframe,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
