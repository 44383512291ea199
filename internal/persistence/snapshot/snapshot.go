package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Persisted slot keys. Versioned so a future layout change can coexist with
// old saves.
const (
	KeyDiscovery = "discovery.v1"
	KeyWaypoints = "waypoints.v1"
	KeySession   = "session.v1"
)

type Header struct {
	Version int    `json:"version"`
	Key     string `json:"key"`
	ShipID  string `json:"ship_id"`
	Tick    uint64 `json:"tick"`
	SavedAt string `json:"saved_at"`
}

// DiscoveryV1 is the full multi-sector discovery map.
type DiscoveryV1 struct {
	Header  Header                `json:"header"`
	Sectors map[string][]RecordV1 `json:"sectors"`
}

type RecordV1 struct {
	ObjectID        string `json:"object_id"`
	DiscoveredAt    string `json:"discovered_at"` // RFC 3339
	Method          string `json:"method"`
	FirstDiscovered bool   `json:"first_discovered"`
	Sector          string `json:"sector"`
}

// WaypointsV1 persists every waypoint including interruption status.
type WaypointsV1 struct {
	Header    Header       `json:"header"`
	Waypoints []WaypointV1 `json:"waypoints"`
}

type WaypointV1 struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Position  [3]float64      `json:"position"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Triggers  []TriggerSpecV1 `json:"triggers,omitempty"`
	Actions   []ActionSpecV1  `json:"actions,omitempty"`
	MissionID string          `json:"mission_id,omitempty"`
}

type TriggerSpecV1 struct {
	Type   string  `json:"type"`
	Radius float64 `json:"radius,omitempty"`
}

type ActionSpecV1 struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// SessionV1 captures the resumable sim state minus ephemeral fields.
type SessionV1 struct {
	Header Header `json:"header"`

	Sector     string     `json:"sector"`
	PlayerPos  [3]float64 `json:"player_pos"`
	Controller struct {
		CurrentTargetID       string `json:"current_target_id,omitempty"`
		Mode                  string `json:"mode"`
		InterruptedWaypointID string `json:"interrupted_waypoint_id,omitempty"`
		RangeMonitorActive    bool   `json:"range_monitor_active,omitempty"`
		Computer              string `json:"computer"`
	} `json:"controller"`

	DestroyedIDs []string `json:"destroyed_ids,omitempty"`
}

// Encode serializes a payload to compressed bytes: one JSON header line,
// then the zstd-compressed JSON body. The header survives uncompressed so
// tooling can identify a blob without decompressing it.
func Encode(header Header, payload any) ([]byte, error) {
	hb, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	compressed := enc.EncodeAll(body, nil)
	_ = enc.Close()

	out := make([]byte, 0, len(hb)+1+len(compressed))
	out = append(out, hb...)
	out = append(out, '\n')
	out = append(out, compressed...)
	return out, nil
}

// Decode reverses Encode into payload. Corrupt input returns an error; the
// caller decides whether that is fatal (discovery load treats it as soft).
func Decode(blob []byte, payload any) (Header, error) {
	var h Header
	i := bytes.IndexByte(blob, '\n')
	if i < 0 {
		return h, fmt.Errorf("snapshot blob: missing header line")
	}
	if err := json.Unmarshal(blob[:i], &h); err != nil {
		return h, fmt.Errorf("snapshot header: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	body, err := dec.DecodeAll(blob[i+1:], nil)
	if err != nil {
		return h, fmt.Errorf("snapshot body: %w", err)
	}
	if err := json.Unmarshal(body, payload); err != nil {
		return h, fmt.Errorf("snapshot payload: %w", err)
	}
	return h, nil
}

// WriteFile stores an encoded payload at path (slot export / backups).
func WriteFile(path string, header Header, payload any) error {
	blob, err := Encode(header, payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 128*1024)
	if _, err := w.Write(blob); err != nil {
		return err
	}
	return w.Flush()
}

// ReadFile loads an encoded payload from path.
func ReadFile(path string, payload any) (Header, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Header{}, err
	}
	return Decode(blob, payload)
}
