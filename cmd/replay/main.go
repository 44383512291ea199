package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	persistlog "planetz.game/internal/persistence/log"
	"planetz.game/internal/persistence/slotdb"
	"planetz.game/internal/sim/catalogs"
	"planetz.game/internal/sim/ship"
	"planetz.game/internal/sim/tuning"
)

// replay re-runs a recorded tick journal against a fresh sim and verifies
// that every tick reproduces the recorded state digest. Reads either the
// ticks-*.jsonl.zst log directory or the sqlite journal.
func main() {
	var (
		shipDir    = flag.String("ship_dir", "", "ship data dir containing ticks-*.jsonl.zst")
		dbPath     = flag.String("db", "", "sqlite journal path (alternative to -ship_dir)")
		shipID     = flag.String("ship", "ship_1", "ship id")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, 0 = end of journal)")
	)
	flag.Parse()

	if *shipDir == "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "missing -ship_dir or -db")
		os.Exit(2)
	}

	entries, err := loadEntries(*shipDir, *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load journal:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "journal is empty")
		os.Exit(1)
	}
	if entries[0].Tick != 0 {
		fmt.Fprintf(os.Stderr, "journal starts at tick %d; replay needs the full history from tick 0\n", entries[0].Tick)
		os.Exit(1)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = *configDir + "/tuning.yaml"
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	logger := log.New(io.Discard, "", 0)
	s, err := ship.New(ship.Config{ShipID: *shipID, Tune: tune}, cats, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ship:", err)
		os.Exit(1)
	}

	var checked uint64
	for _, entry := range entries {
		if *toTick != 0 && entry.Tick > *toTick {
			break
		}
		if entry.Tick != s.CurrentTick() {
			fmt.Fprintf(os.Stderr, "tick gap: journal has %d, sim is at %d\n", entry.Tick, s.CurrentTick())
			os.Exit(1)
		}

		inputs := make([]ship.InputEnvelope, 0, len(entry.Inputs))
		for _, ri := range entry.Inputs {
			inputs = append(inputs, ship.InputEnvelope{SessionID: ri.SessionID, Input: ri.Input})
		}
		tick, digest := s.StepOnce(nil, inputs)

		if tick >= *fromTick {
			checked++
			if digest != entry.Digest {
				fmt.Fprintf(os.Stderr, "digest mismatch at tick %d (sector %s): got=%s want=%s\n",
					tick, entry.Sector, digest, entry.Digest)
				os.Exit(1)
			}
		}
	}
	fmt.Printf("replay ok: checked=%d of %d ticks\n", checked, len(entries))
}

func loadEntries(shipDir, dbPath string) ([]ship.TickLogEntry, error) {
	if dbPath != "" {
		db, err := slotdb.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.TickEntries(0)
	}
	return persistlog.ReadTickLog(shipDir)
}
