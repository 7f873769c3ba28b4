// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup persists the set of previously-seen documents so the same
// disclosure is never acted on twice. Every document passes through here
// before any downstream work.
package dedup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// claimLease is how long a claim on an unprocessed document excludes
// other claimants. A document whose processing failed becomes claimable
// again once the lease expires, so sources re-yielding it on a later
// cycle retry it. Shorter than the default polling interval; tests
// override it.
var claimLease = 10 * time.Minute

// Record is one row of the seen-store. For a given (Source, ItemID) at
// most one Record exists, and Processed flips false→true exactly once.
type Record struct {
	Source    types.SourceName
	ItemID    string
	URL       string
	Title     string
	FirstSeen time.Time
	Processed bool
}

// Store manages the seen-document SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the seen-store database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS seen (
		source TEXT NOT NULL,
		item_id TEXT NOT NULL,
		url TEXT,
		title TEXT,
		first_seen INTEGER NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		claim_expires INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (source, item_id)
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// HasSeen reports whether a record exists for the document key.
func (s *Store) HasSeen(source types.SourceName, itemID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM seen WHERE source = ? AND item_id = ?`,
		string(source), itemID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying seen: %w", err)
	}
	return true, nil
}

// MarkPending claims the document for processing. It returns true for an
// unseen key, and again for a key whose earlier claim was never marked
// processed once that claim's lease has expired — that is the retry path
// for documents whose processing failed. It returns false for processed
// keys and for claims still under lease. The claim is a single
// conflict-resolving statement, so two concurrent callers for the same
// key cannot both win.
func (s *Store) MarkPending(doc types.Document) (bool, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO seen (source, item_id, url, title, first_seen, processed, claim_expires)
		 VALUES (?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT (source, item_id) DO UPDATE SET claim_expires = excluded.claim_expires
		 WHERE seen.processed = 0 AND seen.claim_expires <= ?`,
		string(doc.SourceName), doc.SourceID, doc.URL, doc.Title,
		now.Unix(), now.Add(claimLease).Unix(), now.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("claiming %s/%s: %w", doc.SourceName, doc.SourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming %s/%s: %w", doc.SourceName, doc.SourceID, err)
	}
	return n == 1, nil
}

// MarkProcessed flips the processed flag. The flag is monotonic: the
// update only ever sets it, never clears it. Marking an unknown key is a
// no-op rather than an error so dispatch remains idempotent.
func (s *Store) MarkProcessed(source types.SourceName, itemID string) error {
	_, err := s.db.Exec(
		`UPDATE seen SET processed = 1 WHERE source = ? AND item_id = ?`,
		string(source), itemID,
	)
	if err != nil {
		return fmt.Errorf("marking processed %s/%s: %w", source, itemID, err)
	}
	return nil
}

// Pending returns records claimed but never processed, oldest first. These
// are the documents a future cycle will retry.
func (s *Store) Pending() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT source, item_id, url, title, first_seen, processed
		 FROM seen WHERE processed = 0 ORDER BY first_seen`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Stats summarizes the store contents per source.
type Stats struct {
	Source    types.SourceName
	Total     int
	Processed int
}

// PerSourceStats returns record counts grouped by source.
func (s *Store) PerSourceStats() ([]Stats, error) {
	rows, err := s.db.Query(
		`SELECT source, COUNT(*), SUM(processed) FROM seen GROUP BY source ORDER BY source`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var st Stats
		var src string
		if err := rows.Scan(&src, &st.Total, &st.Processed); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		st.Source = types.SourceName(src)
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var src string
		var firstSeen int64
		var processed int
		if err := rows.Scan(&src, &r.ItemID, &r.URL, &r.Title, &firstSeen, &processed); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Source = types.SourceName(src)
		r.FirstSeen = time.Unix(firstSeen, 0)
		r.Processed = processed == 1
		out = append(out, r)
	}
	return out, rows.Err()
}
