package discovery

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestDiscover_Idempotent(t *testing.T) {
	s := NewStore(nil)
	s.SetClock(fixedClock())
	s.ScopeTo("A0")

	added, rec := s.Discover("A0_star", MethodProximity, true)
	if !added {
		t.Fatalf("first discover: added = false")
	}
	if rec.ObjectID != "A0_star" || rec.Method != MethodProximity || !rec.FirstDiscovered {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Sector != "A0" {
		t.Fatalf("record sector = %q", rec.Sector)
	}

	added2, rec2 := s.Discover("A0_star", MethodManual, false)
	if added2 {
		t.Fatalf("second discover: added = true")
	}
	// Original record wins: method stays proximity.
	if rec2.Method != MethodProximity {
		t.Fatalf("second discover mutated record: %+v", rec2)
	}
	if s.Count() != 1 {
		t.Fatalf("count = %d", s.Count())
	}
}

func TestIsDiscovered_CaseInsensitive(t *testing.T) {
	s := NewStore(nil)
	s.ScopeTo("A0")
	s.Discover("A0_Terra_Prime", MethodManual, true)

	if !s.IsDiscovered("a0_terra_prime") {
		t.Fatalf("lowercase lookup failed")
	}
	if !s.IsDiscovered("A0_TERRA_PRIME") {
		t.Fatalf("uppercase lookup failed")
	}
	if s.IsDiscovered("A0_other") {
		t.Fatalf("absent id reported discovered")
	}
}

func TestSectorIsolation(t *testing.T) {
	s := NewStore(nil)
	s.ScopeTo("A0")
	s.Discover("A0_star", MethodProximity, true)
	s.Discover("A0_terra_prime", MethodProximity, true)

	s.ScopeTo("B1")
	if s.IsDiscovered("A0_star") {
		t.Fatalf("A0 record leaked into B1 scope")
	}
	if s.Count() != 0 {
		t.Fatalf("B1 count = %d", s.Count())
	}
	s.Discover("B1_alpha", MethodProximity, true)

	// The A0 set is still queryable by sector.
	a0 := s.SectorIDs("A0")
	if diff := cmp.Diff([]string{"A0_star", "A0_terra_prime"}, a0); diff != "" {
		t.Fatalf("A0 ids mismatch (-want +got):\n%s", diff)
	}

	s.Reset("B1")
	if s.IsDiscovered("B1_alpha") {
		t.Fatalf("reset did not clear B1")
	}
	if len(s.SectorIDs("A0")) != 2 {
		t.Fatalf("reset of B1 touched A0")
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.SetClock(fixedClock())
	s.ScopeTo("A0")
	s.Discover("A0_star", MethodProximity, true)
	s.Discover("A0_luna", MethodManual, false)
	s.ScopeTo("B1")
	s.Discover("B1_alpha", MethodSystemFix, true)

	dump := s.Export()

	restored := NewStore(nil)
	restored.Import(dump)

	if diff := cmp.Diff(dump, restored.Export()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	restored.ScopeTo("A0")
	if !restored.IsDiscovered("A0_star") || !restored.IsDiscovered("A0_luna") {
		t.Fatalf("A0 records missing after import")
	}
	restored.ScopeTo("B1")
	if !restored.IsDiscovered("B1_alpha") {
		t.Fatalf("B1 record missing after import")
	}
}

func TestImport_SkipsBadRecords(t *testing.T) {
	s := NewStore(nil)
	s.Import(map[string][]Record{
		"A0": {
			{ObjectID: "", Method: MethodManual},
			{ObjectID: "A0_star", Method: MethodProximity},
		},
	})
	s.ScopeTo("A0")
	if s.Count() != 1 {
		t.Fatalf("count = %d, want 1", s.Count())
	}
	rec, ok := s.Get("A0_star")
	if !ok || rec.Sector != "A0" {
		t.Fatalf("record = %+v ok=%v", rec, ok)
	}
}
