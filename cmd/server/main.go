package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "planetz.game/internal/persistence/log"
	"planetz.game/internal/persistence/slotdb"
	"planetz.game/internal/persistence/snapshot"
	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/catalogs"
	"planetz.game/internal/sim/ship"
	"planetz.game/internal/sim/tuning"
	"planetz.game/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		shipID     = flag.String("ship", "ship_1", "ship id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite journal/slot store")
		noRestore  = flag.Bool("no_restore", false, "start fresh even when saved slots exist")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	shipDir := filepath.Join(*dataDir, "ships", *shipID)
	_ = os.MkdirAll(shipDir, 0o755)

	var db *slotdb.DB
	if !*disableDB {
		db, err = slotdb.Open(filepath.Join(shipDir, "journal.db"))
		if err != nil {
			logger.Fatalf("open slot db: %v", err)
		}
		defer db.Close()
		if err := db.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("slot db: upsert catalogs: %v", err)
		}
	}

	s, err := ship.New(ship.Config{ShipID: *shipID, Tune: tune}, cats, logger)
	if err != nil {
		logger.Fatalf("ship: %v", err)
	}

	if db != nil && !*noRestore {
		restoreSlots(s, db, *shipID, logger)
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(shipDir)
	auditLog := persistlog.NewAuditLogger(shipDir)
	defer tickLog.Close()
	defer auditLog.Close()
	s.SetTickLogger(multiTickLogger{a: tickLog, b: db})
	s.SetAuditLogger(multiAuditLogger{a: auditLog, b: db})

	// Save writer. Slot writes happen off the loop goroutine; a full sink
	// drops the save and the next snapshot interval retries.
	saveCh := make(chan ship.Save, 2)
	s.SetSaveSink(saveCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case save := <-saveCh:
				writeSave(db, shipDir, *shipID, save, logger)
			}
		}
	}()

	go func() {
		if err := s.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("ship stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(rw, "# HELP planetz_ship_tick Current sim tick.\n")
		fmt.Fprintf(rw, "# TYPE planetz_ship_tick gauge\n")
		fmt.Fprintf(rw, "planetz_ship_tick{ship=%q} %d\n", *shipID, s.CurrentTick())
	})
	if envBool("PZ_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(s, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (ship=%s sector=%s)", *addr, *shipID, tune.StartSector)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// restoreSlots rebuilds ship state from the persisted slots. Discovery and
// waypoint corruption is soft: the slot is skipped and the sim starts that
// piece empty. Only an unloadable session sector aborts the restore.
func restoreSlots(s *ship.Ship, db *slotdb.DB, shipID string, logger *log.Logger) {
	var save ship.Save
	found := false

	if blob, _, ok, err := db.GetSlot(shipID, snapshot.KeyDiscovery); err != nil {
		logger.Printf("read discovery slot: %v", err)
	} else if ok {
		if _, err := snapshot.Decode(blob, &save.Discovery); err != nil {
			logger.Printf("%s: discovery slot corrupt: %v; starting with empty discovery", protocol.ErrDiscoveryLoadCorrupt, err)
			save.Discovery = snapshot.DiscoveryV1{}
		} else {
			found = true
		}
	}
	if blob, _, ok, err := db.GetSlot(shipID, snapshot.KeyWaypoints); err != nil {
		logger.Printf("read waypoints slot: %v", err)
	} else if ok {
		if _, err := snapshot.Decode(blob, &save.Waypoints); err != nil {
			logger.Printf("waypoints slot corrupt: %v; starting with no waypoints", err)
			save.Waypoints = snapshot.WaypointsV1{}
		} else {
			found = true
		}
	}
	if blob, _, ok, err := db.GetSlot(shipID, snapshot.KeySession); err != nil {
		logger.Printf("read session slot: %v", err)
	} else if ok {
		if _, err := snapshot.Decode(blob, &save.Session); err != nil {
			logger.Printf("session slot corrupt: %v; starting a fresh session", err)
			save.Session = snapshot.SessionV1{}
		} else {
			found = true
		}
	}

	if !found {
		return
	}
	if err := s.ImportSave(save); err != nil {
		logger.Printf("restore failed: %v; starting fresh", err)
		return
	}
	logger.Printf("restored ship=%s sector=%s tick=%d", shipID, s.SectorID(), save.Session.Header.Tick)
}

func writeSave(db *slotdb.DB, shipDir, shipID string, save ship.Save, logger *log.Logger) {
	type slot struct {
		key     string
		header  snapshot.Header
		payload any
	}
	slots := []slot{
		{snapshot.KeyDiscovery, save.Discovery.Header, save.Discovery},
		{snapshot.KeyWaypoints, save.Waypoints.Header, save.Waypoints},
		{snapshot.KeySession, save.Session.Header, save.Session},
	}
	for _, sl := range slots {
		blob, err := snapshot.Encode(sl.header, sl.payload)
		if err != nil {
			logger.Printf("encode slot %s: %v", sl.key, err)
			continue
		}
		if db != nil {
			if err := db.PutSlot(shipID, sl.key, sl.header.Tick, blob); err != nil {
				logger.Printf("put slot %s: %v", sl.key, err)
			}
			continue
		}
		path := filepath.Join(shipDir, "slots", sl.key+".zsnap")
		if err := snapshot.WriteFile(path, sl.header, sl.payload); err != nil {
			logger.Printf("write slot %s: %v", sl.key, err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

type multiTickLogger struct {
	a ship.TickLogger
	b *slotdb.DB
}

func (m multiTickLogger) WriteTick(entry ship.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a ship.AuditLogger
	b *slotdb.DB
}

func (m multiAuditLogger) WriteAudit(entry ship.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
