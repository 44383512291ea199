package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleDiscovery() DiscoveryV1 {
	return DiscoveryV1{
		Header: Header{Version: 1, Key: KeyDiscovery, ShipID: "ship_1", Tick: 42, SavedAt: "2026-03-14T12:00:00Z"},
		Sectors: map[string][]RecordV1{
			"A0": {
				{ObjectID: "A0_star", DiscoveredAt: "2026-03-14T11:59:00Z", Method: "proximity", FirstDiscovered: true, Sector: "A0"},
				{ObjectID: "A0_terra_prime", DiscoveredAt: "2026-03-14T11:59:30Z", Method: "manual", Sector: "A0"},
			},
			"B1": {
				{ObjectID: "B1_alpha", DiscoveredAt: "2026-03-14T12:00:00Z", Method: "system_fix", FirstDiscovered: true, Sector: "B1"},
			},
		},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want := sampleDiscovery()

	blob, err := Encode(want.Header, want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got DiscoveryV1
	h, err := Decode(blob, &got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.Key != KeyDiscovery || h.Tick != 42 {
		t.Fatalf("header = %+v", h)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	var got DiscoveryV1
	if _, err := Decode([]byte("not a snapshot"), &got); err == nil {
		t.Fatalf("Decode accepted garbage without header line")
	}
	if _, err := Decode([]byte("{\"version\":1}\nnot-zstd"), &got); err == nil {
		t.Fatalf("Decode accepted garbage body")
	}
}

func TestWriteReadFile(t *testing.T) {
	want := sampleDiscovery()
	path := filepath.Join(t.TempDir(), "slots", "slot1", "discovery.v1.zst")

	if err := WriteFile(path, want.Header, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var got DiscoveryV1
	h, err := ReadFile(path, &got)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if h.ShipID != "ship_1" {
		t.Fatalf("header = %+v", h)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("file round trip mismatch (-want +got):\n%s", diff)
	}
}
