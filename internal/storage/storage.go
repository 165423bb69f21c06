package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ckuethe/astro-tools/internal/solver"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for solve results.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solve_runs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            file TEXT NOT NULL,
            solved BOOLEAN NOT NULL,
            solve_time REAL,
            sources INTEGER,
            ra REAL,
            dec REAL,
            fov_w REAL,
            fov_h REAL,
            arcsec_pp REAL,
            solve_index TEXT,
            error TEXT,
            result_json TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_solve_runs_file ON solve_runs(file);`,
		`CREATE INDEX IF NOT EXISTS idx_solve_runs_solved ON solve_runs(solved);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Record is one cataloged solve run.
type Record struct {
	ID        int64           `json:"id"`
	File      string          `json:"file"`
	Solved    bool            `json:"solved"`
	SolveTime float64         `json:"solve_time"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecordResult inserts one result. The full record is kept as JSON next to
// the indexed columns so that the API can return it verbatim.
func (s *Store) RecordResult(res *solver.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}

	var sources any
	if res.Sources != nil {
		sources = *res.Sources
	}

	var ra, dec, fovW, fovH, arcsec, index any
	if res.Report != nil {
		ra, dec = res.FieldCenter.RA, res.FieldCenter.Dec
		arcsec = res.ArcsecPerPix
		if len(res.FOV) == 2 {
			fovW, fovH = res.FOV[0], res.FOV[1]
		}
		if res.Index != "" {
			index = res.Index
		}
	}

	var errText any
	if res.Err != "" {
		errText = res.Err
	}

	_, err = s.DB.Exec(
		`INSERT INTO solve_runs
            (file, solved, solve_time, sources, ra, dec, fov_w, fov_h,
             arcsec_pp, solve_index, error, result_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.File, res.Solved, res.SolveTime, sources, ra, dec, fovW, fovH,
		arcsec, index, errText, string(payload),
	)
	return err
}

// RecentResults returns up to limit runs, newest first. solvedOnly filters
// to successful solves.
func (s *Store) RecentResults(limit int, solvedOnly bool) ([]Record, error) {
	q := `SELECT id, file, solved, solve_time, result_json, created_at
	        FROM solve_runs`
	if solvedOnly {
		q += ` WHERE solved = 1`
	}
	q += ` ORDER BY id DESC LIMIT ?`

	rows, err := s.DB.Query(q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ResultsForFile returns all runs recorded for one file, newest first.
func (s *Store) ResultsForFile(file string) ([]Record, error) {
	rows, err := s.DB.Query(
		`SELECT id, file, solved, solve_time, result_json, created_at
	       FROM solve_runs WHERE file = ? ORDER BY id DESC`, file)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var r Record
		var payload string
		if err := rows.Scan(&r.ID, &r.File, &r.Solved, &r.SolveTime, &payload, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Result = json.RawMessage(payload)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
