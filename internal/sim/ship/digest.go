package ship

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"planetz.game/internal/sim/galaxy"
)

// stateDigest hashes the replay-relevant state in a fixed order. Two runs
// that applied the same inputs at the same ticks produce identical digests.
func (s *Ship) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteString(h, &tmp, s.sector.Sector())
	digestWriteVec(h, &tmp, s.playerPos)

	// Discovery, all sectors, sorted.
	exported := s.disc.Export()
	for _, sec := range s.disc.Sectors() {
		digestWriteString(h, &tmp, sec)
		for _, rec := range exported[sec] {
			digestWriteString(h, &tmp, rec.ObjectID)
			digestWriteString(h, &tmp, string(rec.Method))
			h.Write([]byte{boolByte(rec.FirstDiscovered)})
		}
	}

	// Waypoints in id order.
	wps := s.wps.Export()
	sort.Slice(wps, func(i, j int) bool { return wps[i].ID < wps[j].ID })
	for _, wp := range wps {
		digestWriteString(h, &tmp, wp.ID)
		digestWriteString(h, &tmp, string(wp.Status))
		digestWriteString(h, &tmp, string(wp.Kind))
		digestWriteVec(h, &tmp, wp.Position)
	}

	// Controller.
	st := s.ctrl.ExportState()
	digestWriteString(h, &tmp, st.CurrentTargetID)
	digestWriteString(h, &tmp, string(st.Mode))
	digestWriteString(h, &tmp, st.InterruptedWaypointID)
	digestWriteString(h, &tmp, string(st.Computer))
	h.Write([]byte{boolByte(st.RangeMonitorActive)})

	// Destroyed set, sorted.
	destroyed := make([]string, 0, len(s.destroyed))
	for id := range s.destroyed {
		destroyed = append(destroyed, id)
	}
	sort.Strings(destroyed)
	for _, id := range destroyed {
		digestWriteString(h, &tmp, id)
	}

	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWriteVec(h hashWriter, tmp *[8]byte, v galaxy.Vec3) {
	digestWriteF64(h, tmp, v.X)
	digestWriteF64(h, tmp, v.Y)
	digestWriteF64(h, tmp, v.Z)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
