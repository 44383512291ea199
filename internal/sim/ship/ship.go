// Package ship owns the authoritative per-session simulation: the current
// sector catalog, discovery state, waypoints and the target controller. All
// mutable state lives on the loop goroutine; the outside talks through
// channels.
package ship

import (
	"fmt"
	"log"
	"sync/atomic"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/catalogs"
	"planetz.game/internal/sim/diplomacy"
	"planetz.game/internal/sim/discovery"
	"planetz.game/internal/sim/galaxy"
	"planetz.game/internal/sim/targeting"
	"planetz.game/internal/sim/tuning"
	"planetz.game/internal/sim/waypoint"
)

type Config struct {
	ShipID string
	Tune   tuning.Tuning
}

// TickLogger receives one entry per simulated tick. Implemented in
// internal/persistence/*; may be nil.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// AuditLogger receives one entry per state-changing operation.
type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick   uint64          `json:"tick"`
	Sector string          `json:"sector"`
	Inputs []RecordedInput `json:"inputs,omitempty"`
	Events int             `json:"events"`
	Digest string          `json:"digest"`
}

type RecordedInput struct {
	SessionID string            `json:"session_id"`
	Input     protocol.InputMsg `json:"input"`
}

type AuditEntry struct {
	Tick     uint64 `json:"tick"`
	Actor    string `json:"actor"`
	Action   string `json:"action"` // e.g. "WARP", "DISCOVER", "DESTROY"
	ObjectID string `json:"object_id,omitempty"`
	Sector   string `json:"sector"`
	Detail   string `json:"detail,omitempty"`
}

// InputEnvelope carries one client input with its session identity.
type InputEnvelope struct {
	SessionID string
	Input     protocol.InputMsg
}

// JoinRequest attaches an observer session to the ship's frame stream.
type JoinRequest struct {
	SessionID string
	Out       chan []byte
	Resp      chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type clientState struct {
	Out chan []byte
}

type eventLogEntry struct {
	Cursor uint64
	Event  protocol.Event
}

type Ship struct {
	cfg  Config
	cats *catalogs.Catalogs
	src  galaxy.Source

	tick atomic.Uint64

	sector  *galaxy.Catalog
	disc    *discovery.Store
	dipl    *diplomacy.Resolver
	wps     *waypoint.Store
	list    *targeting.List
	ctrl    *targeting.Controller
	scanner *discovery.Scanner

	playerPos galaxy.Vec3

	// destroyed holds normalized ids removed from play this sector. The
	// catalog is immutable, so destruction is an exclusion set applied at
	// rebuild. Cleared on warp.
	destroyed map[string]bool

	// cached retains entries that dropped out of a rebuild (sensor wipe)
	// so manual cycling can still reach them. Cleared on warp.
	cached []targeting.Entry

	rebuildNeeded bool

	// Per-tick outboxes, drained into the frame.
	events []protocol.Event
	hud    []string

	// Event journal for EVENT_BATCH_REQ replay.
	eventCursor uint64
	eventLog    []eventLogEntry

	inbox     chan InputEnvelope
	join      chan JoinRequest
	leave     chan string
	eventsReq chan eventsReq
	stop      chan struct{}

	clients map[string]*clientState

	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional save sink (may be nil). Slot writing is off-thread.
	saveSink chan<- Save

	logger *log.Logger
}

func New(cfg Config, cats *catalogs.Catalogs, logger *log.Logger) (*Ship, error) {
	if cfg.ShipID == "" {
		cfg.ShipID = "ship_1"
	}
	if err := cfg.Tune.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}

	src := cats.SectorSource()
	sector, err := galaxy.LoadSector(src, cfg.Tune.StartSector)
	if err != nil {
		return nil, fmt.Errorf("load start sector: %w", err)
	}

	disc := discovery.NewStore(logger)
	disc.ScopeTo(sector.Sector())

	wps := waypoint.NewStore()
	list := targeting.NewList()
	ctrl := targeting.NewController(list, wps)

	s := &Ship{
		cfg:       cfg,
		cats:      cats,
		src:       src,
		sector:    sector,
		disc:      disc,
		dipl:      diplomacy.NewResolver(cats.Factions.Diplomacy, logger),
		wps:       wps,
		list:      list,
		ctrl:      ctrl,
		scanner:   discovery.NewScanner(cfg.Tune.DiscoveryRadius, logger),
		destroyed: map[string]bool{},
		inbox:     make(chan InputEnvelope, 256),
		join:      make(chan JoinRequest, 16),
		leave:     make(chan string, 16),
		eventsReq: make(chan eventsReq, 16),
		stop:      make(chan struct{}),
		clients:   map[string]*clientState{},
		logger:    logger,
	}

	ctrl.SetClock(s.tick.Load, cfg.Tune.TickRateHz)
	ctrl.SetWarmupUntil(cfg.Tune.WarmupTicks())
	ctrl.SetPlayerPosFn(func() galaxy.Vec3 { return s.playerPos })
	ctrl.SetEmit(s.pushEvent)

	s.seedDiscovery()
	s.rebuildNeeded = true
	return s, nil
}

func (s *Ship) SetTickLogger(l TickLogger)   { s.tickLogger = l }
func (s *Ship) SetAuditLogger(l AuditLogger) { s.auditLogger = l }
func (s *Ship) SetSaveSink(ch chan<- Save)   { s.saveSink = ch }

func (s *Ship) Inbox() chan<- InputEnvelope { return s.inbox }
func (s *Ship) Join() chan<- JoinRequest    { return s.join }
func (s *Ship) Leave() chan<- string        { return s.leave }

func (s *Ship) CurrentTick() uint64 { return s.tick.Load() }

// Accessors for in-process callers (mission engine, tests). Loop-goroutine
// only, like every other mutator.
func (s *Ship) SectorID() string                  { return s.sector.Sector() }
func (s *Ship) PlayerPos() galaxy.Vec3            { return s.playerPos }
func (s *Ship) Discovery() *discovery.Store       { return s.disc }
func (s *Ship) Waypoints() *waypoint.Store        { return s.wps }
func (s *Ship) Targets() *targeting.List          { return s.list }
func (s *Ship) Controller() *targeting.Controller { return s.ctrl }

func (s *Ship) welcome(sessionID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		ShipID:          s.cfg.ShipID,
		SectorID:        s.sector.Sector(),
		TickRateHz:      s.cfg.Tune.TickRateHz,
		Catalogs: protocol.CatalogDigests{
			SectorsDigest:  s.cats.Sectors.Digest,
			SectorCount:    len(s.cats.Sectors.IDs),
			FactionsDigest: s.cats.Factions.Digest,
		},
	}
}

func (s *Ship) audit(nowTick uint64, action, objectID, detail string) {
	if s.auditLogger == nil {
		return
	}
	_ = s.auditLogger.WriteAudit(AuditEntry{
		Tick:     nowTick,
		Actor:    s.cfg.ShipID,
		Action:   action,
		ObjectID: objectID,
		Sector:   s.sector.Sector(),
		Detail:   detail,
	})
}

func (s *Ship) warnf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf("[ship] "+format, args...)
	}
}
