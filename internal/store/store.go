// Package store persists healing attempts and failure classifications in a
// SQLite database so the report command can answer "which fixes work" and
// "which failures keep coming back" across runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"odyssey/internal/classify"
	"odyssey/internal/healing"
)

// Store wraps the odyssey SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS healing_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_file TEXT NOT NULL,
	attempt INTEGER NOT NULL,
	fix_type TEXT NOT NULL,
	applied INTEGER NOT NULL,
	confidence REAL NOT NULL,
	note TEXT,
	fingerprint TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_file ON healing_attempts(test_file);
CREATE INDEX IF NOT EXISTS idx_attempts_fingerprint ON healing_attempts(fingerprint);

CREATE TABLE IF NOT EXISTS classifications (
	fingerprint TEXT PRIMARY KEY,
	test_id TEXT NOT NULL,
	category TEXT NOT NULL,
	selector TEXT,
	location TEXT,
	first_seen DATETIME NOT NULL,
	last_seen DATETIME NOT NULL,
	count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_classifications_category ON classifications(category);
`

// New creates or opens the store under dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dbPath := filepath.Join(dir, "odyssey.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// RecordAttempt appends one healing attempt for a test file.
func (s *Store) RecordAttempt(testFile string, rec healing.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO healing_attempts
			(test_file, attempt, fix_type, applied, confidence, note, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		testFile, rec.Attempt, string(rec.Fix), boolInt(rec.Applied),
		rec.Confidence, rec.Note, rec.Fingerprint, ts)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// RecordLoop persists every attempt of a finished healing loop.
func (s *Store) RecordLoop(res healing.LoopResult) error {
	for _, rec := range res.History {
		if err := s.RecordAttempt(res.TestFile, rec); err != nil {
			return err
		}
	}
	return nil
}

// AttemptsFor returns the attempt log for one test file, oldest first.
func (s *Store) AttemptsFor(testFile string) ([]healing.AttemptRecord, error) {
	rows, err := s.db.Query(`
		SELECT attempt, fix_type, applied, confidence, note, fingerprint, created_at
		FROM healing_attempts WHERE test_file = ? ORDER BY id`, testFile)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []healing.AttemptRecord
	for rows.Next() {
		var rec healing.AttemptRecord
		var fix string
		var applied int
		if err := rows.Scan(&rec.Attempt, &fix, &applied, &rec.Confidence,
			&rec.Note, &rec.Fingerprint, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		rec.Fix = healing.FixType(fix)
		rec.Applied = applied != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FixStats aggregates attempt outcomes per fix type.
type FixStats struct {
	Fix      healing.FixType `json:"fix"`
	Attempts int             `json:"attempts"`
	Applied  int             `json:"applied"`
}

// StatsByFix returns attempt counts per fix type, most attempted first.
func (s *Store) StatsByFix() ([]FixStats, error) {
	rows, err := s.db.Query(`
		SELECT fix_type, COUNT(*), SUM(applied)
		FROM healing_attempts GROUP BY fix_type ORDER BY COUNT(*) DESC, fix_type`)
	if err != nil {
		return nil, fmt.Errorf("query fix stats: %w", err)
	}
	defer rows.Close()

	var out []FixStats
	for rows.Next() {
		var fs FixStats
		var fix string
		if err := rows.Scan(&fix, &fs.Attempts, &fs.Applied); err != nil {
			return nil, fmt.Errorf("scan fix stats: %w", err)
		}
		fs.Fix = healing.FixType(fix)
		out = append(out, fs)
	}
	return out, rows.Err()
}

// History is the recurrence record of one failure identity.
type History struct {
	Fingerprint string            `json:"fingerprint"`
	TestID      string            `json:"testId"`
	Category    classify.Category `json:"category"`
	Selector    string            `json:"selector,omitempty"`
	Location    string            `json:"location,omitempty"`
	FirstSeen   time.Time         `json:"firstSeen"`
	LastSeen    time.Time         `json:"lastSeen"`
	Count       int               `json:"count"`
}

// RecordClassification upserts a classification; a repeated fingerprint
// bumps its count and last-seen time.
func (s *Store) RecordClassification(testID string, c classify.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO classifications
			(fingerprint, test_id, category, selector, location, first_seen, last_seen, count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(fingerprint) DO UPDATE SET
			test_id = excluded.test_id,
			last_seen = excluded.last_seen,
			count = count + 1`,
		c.Fingerprint, testID, string(c.Category), c.Selector, c.Location, now, now)
	if err != nil {
		return fmt.Errorf("record classification: %w", err)
	}
	return nil
}

// HistoryFor returns the recurrence record for one fingerprint.
func (s *Store) HistoryFor(fingerprint string) (History, bool, error) {
	row := s.db.QueryRow(`
		SELECT fingerprint, test_id, category, selector, location, first_seen, last_seen, count
		FROM classifications WHERE fingerprint = ?`, fingerprint)
	h, err := scanHistory(row.Scan)
	if err == sql.ErrNoRows {
		return History{}, false, nil
	}
	if err != nil {
		return History{}, false, fmt.Errorf("query history: %w", err)
	}
	return h, true, nil
}

// Recurring returns fingerprints seen more than once, most frequent first.
func (s *Store) Recurring(limit int) ([]History, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT fingerprint, test_id, category, selector, location, first_seen, last_seen, count
		FROM classifications WHERE count > 1
		ORDER BY count DESC, fingerprint LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recurring: %w", err)
	}
	defer rows.Close()

	var out []History
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHistory(scan func(...any) error) (History, error) {
	var h History
	var cat string
	err := scan(&h.Fingerprint, &h.TestID, &cat, &h.Selector, &h.Location,
		&h.FirstSeen, &h.LastSeen, &h.Count)
	h.Category = classify.Category(cat)
	return h, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
