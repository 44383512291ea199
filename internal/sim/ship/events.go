package ship

import (
	"context"
	"errors"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/galaxy"
)

// pushEvent queues an event for this tick's frame and appends it to the
// replay journal.
func (s *Ship) pushEvent(e protocol.Event) {
	s.events = append(s.events, e)

	s.eventCursor++
	s.eventLog = append(s.eventLog, eventLogEntry{Cursor: s.eventCursor, Event: e})
	if max := s.cfg.Tune.EventJournalSize; max > 0 && len(s.eventLog) > max {
		s.eventLog = append([]eventLogEntry(nil), s.eventLog[len(s.eventLog)-max:]...)
	}
}

func (s *Ship) pushHUD(msg string) {
	if msg == "" {
		return
	}
	s.hud = append(s.hud, msg)
	s.pushEvent(protocol.Event{"type": protocol.EvHUDMessage, "text": msg})
}

func (s *Ship) takeEvents() []protocol.Event {
	ev := s.events
	s.events = nil
	return ev
}

func (s *Ship) takeHUD() []string {
	h := s.hud
	s.hud = nil
	return h
}

func discoveredEvent(o galaxy.Object) protocol.Event {
	return protocol.Event{
		"type":      protocol.EvDiscovered,
		"object_id": o.ID,
		"name":      o.Name,
		"kind":      string(o.Type),
	}
}

func contaminationEvent(id, sector string) protocol.Event {
	return protocol.Event{
		"type":      protocol.TypeError,
		"code":      protocol.ErrSectorContamination,
		"object_id": id,
		"sector":    sector,
	}
}

// EventCursorItem pairs a journal cursor with its event.
type EventCursorItem struct {
	Cursor uint64
	Event  protocol.Event
}

type eventsReq struct {
	SinceCursor uint64
	Limit       int
	Resp        chan EventBatch
}

// EventBatch is the loop's answer to an events query. Sector rides along so
// remote callers never read loop-owned state directly.
type EventBatch struct {
	Items      []EventCursorItem
	NextCursor uint64
	Sector     string
}

// RequestEventsAfter fetches journal events past a cursor. Safe to call from
// any goroutine; the loop answers between ticks.
func (s *Ship) RequestEventsAfter(ctx context.Context, sinceCursor uint64, limit int) (EventBatch, error) {
	if s == nil || s.eventsReq == nil {
		return EventBatch{NextCursor: sinceCursor}, errors.New("event query not available")
	}
	req := eventsReq{
		SinceCursor: sinceCursor,
		Limit:       limit,
		Resp:        make(chan EventBatch, 1),
	}
	select {
	case s.eventsReq <- req:
	case <-ctx.Done():
		return EventBatch{NextCursor: sinceCursor}, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-ctx.Done():
		return EventBatch{NextCursor: sinceCursor}, ctx.Err()
	}
}

func (s *Ship) handleEventsReq(req eventsReq) {
	resp := EventBatch{NextCursor: req.SinceCursor, Sector: s.sector.Sector()}
	resp.Items, resp.NextCursor = s.EventsAfter(req.SinceCursor, req.Limit)
	if req.Resp == nil {
		return
	}
	select {
	case req.Resp <- resp:
	default:
	}
}

// EventsAfter reads the journal past a cursor. Loop-goroutine only; remote
// callers go through RequestEventsAfter.
func (s *Ship) EventsAfter(cursor uint64, limit int) ([]EventCursorItem, uint64) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	out := make([]EventCursorItem, 0, limit)
	next := cursor
	for _, e := range s.eventLog {
		if e.Cursor <= cursor {
			continue
		}
		out = append(out, EventCursorItem{Cursor: e.Cursor, Event: e.Event})
		next = e.Cursor
		if len(out) >= limit {
			break
		}
	}
	return out, next
}
