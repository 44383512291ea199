package ship

import (
	"context"
	"encoding/json"
	"time"

	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/targeting"
)

// Run drives the sim at the configured tick rate until ctx ends or Stop is
// called. Inputs accumulate between ticks and apply at the tick boundary in
// arrival order.
func (s *Ship) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.cfg.Tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingInputs []InputEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case req := <-s.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-s.leave:
			delete(s.clients, id)
		case req := <-s.eventsReq:
			s.handleEventsReq(req)
		case env := <-s.inbox:
			pendingInputs = append(pendingInputs, env)
		case <-ticker.C:
			s.step(pendingJoins, pendingInputs)
			pendingJoins = pendingJoins[:0]
			pendingInputs = pendingInputs[:0]
		}
	}
}

func (s *Ship) Stop() { close(s.stop) }

func (s *Ship) handleJoin(req JoinRequest) {
	if req.Out != nil {
		s.clients[req.SessionID] = &clientState{Out: req.Out}
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: s.welcome(req.SessionID)}
	}
}

func (s *Ship) step(joins []JoinRequest, inputs []InputEnvelope) {
	nowTick := s.tick.Load()

	// Joins apply at the tick boundary so the welcome reflects a settled
	// sector.
	for _, req := range joins {
		s.handleJoin(req)
	}

	recorded := make([]RecordedInput, 0, len(inputs))
	for _, env := range inputs {
		recorded = append(recorded, RecordedInput{SessionID: env.SessionID, Input: env.Input})
		s.applyInput(env, nowTick)
	}

	// Proximity discovery runs after inputs so a SET_POSITION from this
	// tick is already in effect. Newly found objects invalidate the list
	// once, not per object.
	if found := s.scanner.Scan(s.sector, s.disc, s.playerPos); len(found) > 0 {
		s.rebuildNeeded = true
		for _, o := range found {
			s.pushEvent(discoveredEvent(o))
			s.audit(nowTick, "DISCOVER", o.ID, "proximity")
		}
	}

	s.tickWaypoints(nowTick)

	if s.rebuildNeeded {
		s.rebuildList()
		s.rebuildNeeded = false
	}
	s.list.RefreshDistances(s.playerPos)
	s.assertSectorIntegrity(nowTick)

	frame := s.buildFrame(nowTick)
	b, err := json.Marshal(frame)
	if err == nil {
		for _, cl := range s.clients {
			sendLatest(cl.Out, b)
		}
	}

	digest := s.stateDigest(nowTick)
	if s.tickLogger != nil {
		_ = s.tickLogger.WriteTick(TickLogEntry{
			Tick:   nowTick,
			Sector: s.sector.Sector(),
			Inputs: recorded,
			Events: len(frame.Events),
			Digest: digest,
		})
	}

	if s.saveSink != nil && nowTick != 0 && s.cfg.Tune.SnapshotEveryTicks > 0 &&
		nowTick%uint64(s.cfg.Tune.SnapshotEveryTicks) == 0 {
		save := s.ExportSave(nowTick)
		select {
		case s.saveSink <- save:
		default:
			// Drop the save if the sink is backed up; the next interval retries.
		}
	}

	s.tick.Add(1)
}

// StepOnce advances the sim by a single tick with the same ordering as Run.
// Intended for deterministic replays and tests.
func (s *Ship) StepOnce(joins []JoinRequest, inputs []InputEnvelope) (tick uint64, digest string) {
	tick = s.tick.Load()
	s.step(joins, inputs)
	return tick, s.stateDigest(tick)
}

// rebuildList rebuilds the target list from current discovery, re-locating
// the selection by id. Entries that vanished for a reason other than
// destruction stay reachable through the cache.
func (s *Ship) rebuildList() {
	cur := s.ctrl.CurrentID()
	prev := s.list.Entries()

	s.list.Rebuild(s.sector, s.disc, s.wps, s.playerPos, s.destroyed)

	for _, e := range prev {
		if e.IsWaypoint || s.destroyed[galaxy.NormalizeID(e.ID)] {
			continue
		}
		if s.list.IndexOf(e.ID) >= 0 {
			continue
		}
		s.cacheEntry(e)
	}
	if len(s.cached) > 0 {
		s.list.ExtendWithCached(s.cached)
	}

	s.ctrl.Restore(cur)
}

func (s *Ship) cacheEntry(e targeting.Entry) {
	key := galaxy.NormalizeID(e.ID)
	for i := range s.cached {
		if galaxy.NormalizeID(s.cached[i].ID) == key {
			return
		}
	}
	e.IsCached = true
	e.Object = nil
	s.cached = append(s.cached, e)
	if limit := s.cfg.Tune.CachedTargetLimit; limit > 0 && len(s.cached) > limit {
		s.cached = append([]targeting.Entry(nil), s.cached[len(s.cached)-limit:]...)
	}
}

// assertSectorIntegrity removes any physical entry whose id prefix does not
// match the loaded sector. This should never fire; when it does, the entry
// is dropped and the leak is reported rather than rendered.
func (s *Ship) assertSectorIntegrity(nowTick uint64) {
	want := galaxy.NormalizeID(s.sector.Sector())
	curID := s.ctrl.CurrentID()
	removed := false
	for i := s.list.Len() - 1; i >= 0; i-- {
		e := s.list.At(i)
		if e.IsWaypoint {
			continue
		}
		if galaxy.NormalizeID(galaxy.SectorOf(e.ID)) == want {
			continue
		}
		s.warnf("sector contamination: entry %s in sector %s", e.ID, s.sector.Sector())
		s.audit(nowTick, "CONTAMINATION", e.ID, "removed from target list")
		s.pushEvent(contaminationEvent(e.ID, s.sector.Sector()))
		if galaxy.NormalizeID(e.ID) == galaxy.NormalizeID(curID) {
			curID = ""
		}
		s.list.Remove(i)
		removed = true
	}
	if removed {
		s.ctrl.Restore(curID)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	if ch == nil {
		return
	}
	select {
	case ch <- b:
	default:
		// Client is slow: drop the oldest queued frame and try again.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- b:
		default:
		}
	}
}
