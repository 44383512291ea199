// Package slotdb is the sqlite side store: named save slots, the tick/audit
// journal and catalog metadata. Journal writes go through a single background
// writer so the sim loop never blocks on disk.
package slotdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"planetz.game/internal/sim/catalogs"
	"planetz.game/internal/sim/ship"
	"planetz.game/internal/sim/tuning"
)

type DB struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
)

type req struct {
	kind reqKind

	tick  ship.TickLogEntry
	audit ship.AuditEntry
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &DB{
		db: db,
		// Big buffer: a warp or a dense discovery tick bursts audit rows.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-heavy journal; NORMAL is enough durability for
	// a secondary store (the zstd slot files are the source of truth).
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS slots (
			ship_id TEXT NOT NULL,
			key TEXT NOT NULL,
			tick INTEGER NOT NULL,
			blob BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (ship_id, key)
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			sector TEXT NOT NULL,
			digest TEXT NOT NULL,
			inputs INTEGER NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			id TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			object_id TEXT,
			sector TEXT NOT NULL,
			detail TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_tick ON audits(tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_object ON audits(object_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues a journal row. Drops when the writer falls behind; the
// JSONL logs remain complete.
func (s *DB) WriteTick(entry ship.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
	}
	return nil
}

func (s *DB) WriteAudit(entry ship.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

// PutSlot stores one encoded save payload under (shipID, key). Synchronous:
// slot writes happen off the sim thread already, and a save the player can
// not read back is worse than a slow one.
func (s *DB) PutSlot(shipID, key string, tick uint64, blob []byte) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO slots(ship_id,key,tick,blob,updated_at) VALUES(?,?,?,?,?)`,
		shipID, key, int64(tick), blob, now,
	)
	return err
}

// GetSlot loads the blob stored under (shipID, key). Missing slots report
// found=false rather than an error.
func (s *DB) GetSlot(shipID, key string) (blob []byte, tick uint64, found bool, err error) {
	if s == nil {
		return nil, 0, false, nil
	}
	var t int64
	row := s.db.QueryRow(`SELECT blob, tick FROM slots WHERE ship_id=? AND key=?`, shipID, key)
	switch err := row.Scan(&blob, &t); err {
	case nil:
		return blob, uint64(t), true, nil
	case sql.ErrNoRows:
		return nil, 0, false, nil
	default:
		return nil, 0, false, err
	}
}

// TickDigest reads one replay checkpoint from the journal.
func (s *DB) TickDigest(tick uint64) (digest string, found bool, err error) {
	row := s.db.QueryRow(`SELECT digest FROM ticks WHERE tick=?`, int64(tick))
	switch err := row.Scan(&digest); err {
	case nil:
		return digest, true, nil
	case sql.ErrNoRows:
		return "", false, nil
	default:
		return "", false, err
	}
}

// TickEntries streams the journal in tick order for replay.
func (s *DB) TickEntries(fromTick uint64) ([]ship.TickLogEntry, error) {
	rows, err := s.db.Query(`SELECT raw_json FROM ticks WHERE tick>=? ORDER BY tick`, int64(fromTick))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ship.TickLogEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e ship.TickLogEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("tick row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertCatalogs records the content digests and applied tuning so a slot
// db is self-describing.
func (s *DB) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Sectors.IDs); len(b) > 0 {
		rows = append(rows, kv{name: "sectors", digest: cats.Sectors.Digest, json: b})
	}
	if b, _ := json.Marshal(cats.Factions.Diplomacy); len(b) > 0 {
		rows = append(rows, kv{name: "factions", digest: cats.Factions.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *DB) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,sector,digest,inputs,events,raw_json) VALUES(?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(id,tick,actor,action,object_id,sector,detail,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(r.tick.Tick),
					r.tick.Sector,
					r.tick.Digest,
					len(r.tick.Inputs),
					r.tick.Events,
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					uuid.NewString(),
					int64(a.Tick),
					a.Actor,
					a.Action,
					a.ObjectID,
					a.Sector,
					a.Detail,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}

		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
