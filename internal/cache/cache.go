// Package cache is a best-effort local mirror of the last successful
// hydrate, used only to paint a screen before the remote fetch completes.
// It is never authoritative: every operation swallows its own failures, and
// a read for a trip other than the one last written reports absent rather
// than serving stale rows.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/wellsfam/tripsync/internal/domain"
)

// Store names, one per flat row set. Each snapshot collection is persisted
// under its own store so reads can rebuild the snapshot field by field.
const (
	storeTrip        = "trip"
	storeMembers     = "members"
	storeDays        = "days"
	storeBlocks      = "blocks"
	storeRSVPs       = "rsvps"
	storeTripMsgs    = "trip_messages"
	storeBlockMsgs   = "block_messages"
	storeBudget      = "budget"
	storePackingBase = "packing_base"
	storeChecks      = "packing_checks"
	storePersonal    = "personal_packing"
	storeQuests      = "questionnaires"
	storeResponses   = "questionnaire_responses"
)

// Store is a SQLite-backed keyed cache addressable by (store, row id).
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates or opens the cache file at path and ensures its schema.
// Open is the one cache operation allowed to fail loudly: without a usable
// file there is nothing to be best-effort about, and the caller decides
// whether to run without a cache.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache.Open: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS cache_rows (
			store TEXT NOT NULL,
			id    TEXT NOT NULL,
			data  BLOB NOT NULL,
			PRIMARY KEY (store, id)
		);
		CREATE TABLE IF NOT EXISTS cache_meta (
			key       TEXT PRIMARY KEY,
			trip_id   TEXT NOT NULL,
			synced_at TIMESTAMP NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache.Open: schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write overwrites the cache wholesale with the given snapshot and records
// a (trip id, timestamp) marker. Failures are logged at debug and swallowed
// — the hydrate path never depends on the cache succeeding.
func (s *Store) Write(tripID uuid.UUID, snap domain.Snapshot) {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.Debug("cache: begin failed", "error", err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_rows`); err != nil {
		s.log.Debug("cache: clear failed", "error", err)
		return
	}

	ok := putOne(s, tx, storeTrip, snap.Trip.ID.String(), snap.Trip)
	ok = ok && putAll(s, tx, storeMembers, snap.Members, func(m domain.MemberRow) string { return m.Membership.UserID.String() })
	ok = ok && putAll(s, tx, storeDays, snap.Days, func(d domain.TripDay) string { return d.ID.String() })
	ok = ok && putAll(s, tx, storeBlocks, snap.Blocks, func(b domain.TimeBlock) string { return b.ID.String() })
	ok = ok && putAll(s, tx, storeRSVPs, snap.RSVPs, func(r domain.RSVP) string { return r.ID.String() })
	ok = ok && putAll(s, tx, storeTripMsgs, snap.TripMessages, func(m domain.Message) string { return m.ID.String() })
	ok = ok && putAll(s, tx, storeBlockMsgs, snap.BlockMessages, func(m domain.Message) string { return m.ID.String() })
	ok = ok && putAll(s, tx, storeBudget, snap.Expenses, func(e domain.BudgetExpense) string { return e.ID.String() })
	ok = ok && putAll(s, tx, storePackingBase, snap.PackingBase, func(p domain.PackingBaseItem) string { return p.ID.String() })
	ok = ok && putAll(s, tx, storeChecks, snap.PackingChecks, func(c domain.PackingCheck) string { return c.ID.String() })
	ok = ok && putAll(s, tx, storePersonal, snap.PersonalItems, func(p domain.PersonalPackingItem) string { return p.ID.String() })
	ok = ok && putAll(s, tx, storeQuests, snap.Questionnaires, func(q domain.Questionnaire) string { return q.ID.String() })
	ok = ok && putAll(s, tx, storeResponses, snap.Responses, func(r domain.QuestionnaireResponse) string { return r.ID.String() })
	if !ok {
		return
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO cache_meta (key, trip_id, synced_at) VALUES ('last_sync', ?, ?)`,
		tripID.String(), time.Now().UTC(),
	)
	if err != nil {
		s.log.Debug("cache: meta write failed", "error", err)
		return
	}

	if err := tx.Commit(); err != nil {
		s.log.Debug("cache: commit failed", "error", err)
	}
}

// Read returns the cached snapshot for tripID, or ok=false if the cache is
// empty, unreadable, or was last written for a different trip. Stale data
// for another trip is never returned.
func (s *Store) Read(tripID uuid.UUID) (domain.Snapshot, bool) {
	var markerTrip string
	err := s.db.QueryRow(`SELECT trip_id FROM cache_meta WHERE key = 'last_sync'`).Scan(&markerTrip)
	if err != nil || markerTrip != tripID.String() {
		return domain.Snapshot{}, false
	}

	var snap domain.Snapshot
	ok := getOne(s, storeTrip, tripID.String(), &snap.Trip)
	ok = ok && getAll(s, storeMembers, &snap.Members)
	ok = ok && getAll(s, storeDays, &snap.Days)
	ok = ok && getAll(s, storeBlocks, &snap.Blocks)
	ok = ok && getAll(s, storeRSVPs, &snap.RSVPs)
	ok = ok && getAll(s, storeTripMsgs, &snap.TripMessages)
	ok = ok && getAll(s, storeBlockMsgs, &snap.BlockMessages)
	ok = ok && getAll(s, storeBudget, &snap.Expenses)
	ok = ok && getAll(s, storePackingBase, &snap.PackingBase)
	ok = ok && getAll(s, storeChecks, &snap.PackingChecks)
	ok = ok && getAll(s, storePersonal, &snap.PersonalItems)
	ok = ok && getAll(s, storeQuests, &snap.Questionnaires)
	ok = ok && getAll(s, storeResponses, &snap.Responses)
	if !ok {
		return domain.Snapshot{}, false
	}
	return snap, true
}

// Clear drops all cached rows and the sync marker, e.g. on logout.
func (s *Store) Clear() {
	if _, err := s.db.Exec(`DELETE FROM cache_rows`); err != nil {
		s.log.Debug("cache: clear failed", "error", err)
		return
	}
	if _, err := s.db.Exec(`DELETE FROM cache_meta`); err != nil {
		s.log.Debug("cache: clear meta failed", "error", err)
	}
}

func putOne(s *Store, tx *sql.Tx, store, id string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Debug("cache: marshal failed", "store", store, "error", err)
		return false
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO cache_rows (store, id, data) VALUES (?, ?, ?)`, store, id, data); err != nil {
		s.log.Debug("cache: put failed", "store", store, "error", err)
		return false
	}
	return true
}

func putAll[T any](s *Store, tx *sql.Tx, store string, rows []T, id func(T) string) bool {
	for _, row := range rows {
		if !putOne(s, tx, store, id(row), row) {
			return false
		}
	}
	return true
}

func getOne(s *Store, store, id string, dest any) bool {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM cache_rows WHERE store = ? AND id = ?`, store, id).Scan(&data)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func getAll[T any](s *Store, store string, dest *[]T) bool {
	rows, err := s.db.Query(`SELECT data FROM cache_rows WHERE store = ? ORDER BY id`, store)
	if err != nil {
		s.log.Debug("cache: get-all failed", "store", store, "error", err)
		return false
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return false
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return false
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return false
	}
	*dest = out
	return true
}
