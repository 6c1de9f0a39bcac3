package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dreamfactorysoftware/df-wiki/internal/apperr"
	"github.com/dreamfactorysoftware/df-wiki/internal/batch"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
)

// Store defines the history operations the server and watcher depend on.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with fakes.
type Store interface {
	RecordRun(root string, st batch.Stats, scores []batch.FileScore) (int64, error)
	StartRun(root string) (int64, error)
	UpsertPageScore(runID int64, fs batch.FileScore) error
	DeletePageScore(runID int64, path string) error
	PageChecksum(runID int64, path string) (string, error)
	Runs(limit int) ([]Run, error)
	LatestRun() (Run, error)
	RunScores(runID int64) ([]PageScore, error)
	PageTrend(path string, limit int) ([]PageScore, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// Run is one row of the runs table.
type Run struct {
	ID        int64     `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Root      string    `json:"root"`
	Files     int       `json:"files"`
	Average   float64   `json:"average"`
	Lowest    float64   `json:"lowest"`
	Highest   float64   `json:"highest"`
	Stubs     int       `json:"stubs"`
	Hubs      int       `json:"hubs"`
	Failed    int       `json:"failed"`
}

// PageScore is one recorded evaluation. Criteria carries the full
// seven-criterion breakdown as stored.
type PageScore struct {
	RunID     int64                   `json:"run_id"`
	Path      string                  `json:"path"`
	Format    string                  `json:"format"`
	Overall   float64                 `json:"overall"`
	WordCount int                     `json:"word_count"`
	IsStub    bool                    `json:"is_stub"`
	IsHub     bool                    `json:"is_hub"`
	Checksum  string                  `json:"checksum"`
	Criteria  []score.CriterionResult `json:"criteria"`
	ScoredAt  time.Time               `json:"scored_at"`
}

// RecordRun stores a finished batch run and every page score in one
// transaction, returning the new run id.
func (db *DB) RecordRun(root string, st batch.Stats, scores []batch.FileScore) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO runs (root, files, average, lowest, highest, stubs, hubs, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, root, st.Files, st.Average, st.Lowest, st.Highest, st.Stubs, st.Hubs, st.Failed)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO page_scores (run_id, path, format, overall, word_count, is_stub, is_hub, checksum, criteria)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("history: prepare score insert: %w", err)
	}
	defer stmt.Close()
	for _, fs := range scores {
		criteriaJSON, _ := json.Marshal(fs.Criteria)
		if _, err := stmt.Exec(runID, fs.FilePath, string(fs.Format), fs.OverallScore,
			fs.WordCount, fs.IsStub, fs.IsHub, fs.Checksum, string(criteriaJSON)); err != nil {
			return 0, fmt.Errorf("history: insert score %s: %w", fs.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit run: %w", err)
	}
	return runID, nil
}

// StartRun opens an empty run row for incremental recording (the watcher's
// rolling run) and returns its id.
func (db *DB) StartRun(root string) (int64, error) {
	res, err := db.conn.Exec(`INSERT INTO runs (root) VALUES (?)`, root)
	if err != nil {
		return 0, fmt.Errorf("history: start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}
	return id, nil
}

// UpsertPageScore inserts or replaces one page score in a run and refreshes
// the run's aggregate columns.
func (db *DB) UpsertPageScore(runID int64, fs batch.FileScore) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	criteriaJSON, _ := json.Marshal(fs.Criteria)
	_, err = tx.Exec(`
		INSERT INTO page_scores (run_id, path, format, overall, word_count, is_stub, is_hub, checksum, criteria, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, path) DO UPDATE SET
			format     = excluded.format,
			overall    = excluded.overall,
			word_count = excluded.word_count,
			is_stub    = excluded.is_stub,
			is_hub     = excluded.is_hub,
			checksum   = excluded.checksum,
			criteria   = excluded.criteria,
			scored_at  = excluded.scored_at
	`, runID, fs.FilePath, string(fs.Format), fs.OverallScore,
		fs.WordCount, fs.IsStub, fs.IsHub, fs.Checksum, string(criteriaJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("history: upsert score: %w", err)
	}
	if err := refreshRun(tx, runID); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePageScore removes one page from a run and refreshes the run's
// aggregate columns.
func (db *DB) DeletePageScore(runID int64, path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM page_scores WHERE run_id = ? AND path = ?`, runID, path); err != nil {
		return fmt.Errorf("history: delete score: %w", err)
	}
	if err := refreshRun(tx, runID); err != nil {
		return err
	}
	return tx.Commit()
}

// refreshRun recomputes a run's aggregates from its remaining page scores.
func refreshRun(tx *sql.Tx, runID int64) error {
	_, err := tx.Exec(`
		UPDATE runs SET
			files   = (SELECT COUNT(*) FROM page_scores WHERE run_id = ?),
			average = COALESCE((SELECT AVG(overall) FROM page_scores WHERE run_id = ?), 0),
			lowest  = COALESCE((SELECT MIN(overall) FROM page_scores WHERE run_id = ?), 0),
			highest = COALESCE((SELECT MAX(overall) FROM page_scores WHERE run_id = ?), 0),
			stubs   = (SELECT COUNT(*) FROM page_scores WHERE run_id = ? AND is_stub = 1),
			hubs    = (SELECT COUNT(*) FROM page_scores WHERE run_id = ? AND is_hub = 1)
		WHERE id = ?
	`, runID, runID, runID, runID, runID, runID, runID)
	if err != nil {
		return fmt.Errorf("history: refresh run: %w", err)
	}
	return nil
}

// PageChecksum returns the checksum recorded for path in a run, or empty
// string when the page has not been recorded there.
func (db *DB) PageChecksum(runID int64, path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM page_scores WHERE run_id = ? AND path = ?`, runID, path).Scan(&cs)
	if err != nil {
		return "", nil // not recorded is fine
	}
	return cs, nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, root, files, average, lowest, highest, stubs, hubs, failed
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Root, &r.Files, &r.Average,
			&r.Lowest, &r.Highest, &r.Stubs, &r.Hubs, &r.Failed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run, or apperr.ErrNotFound when the
// store is empty.
func (db *DB) LatestRun() (Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT id, started_at, root, files, average, lowest, highest, stubs, hubs, failed
		FROM runs ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.Root, &r.Files, &r.Average,
		&r.Lowest, &r.Highest, &r.Stubs, &r.Hubs, &r.Failed)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("history: latest run: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: latest run: %w", err)
	}
	return r, nil
}

// RunScores returns every page score of a run, ordered by path.
func (db *DB) RunScores(runID int64) ([]PageScore, error) {
	rows, err := db.conn.Query(`
		SELECT run_id, path, format, overall, word_count, is_stub, is_hub, checksum, criteria, scored_at
		FROM page_scores WHERE run_id = ? ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: run scores: %w", err)
	}
	return scanPageScores(rows)
}

// PageTrend returns the score history of one page across runs, newest
// first.
func (db *DB) PageTrend(path string, limit int) ([]PageScore, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT run_id, path, format, overall, word_count, is_stub, is_hub, checksum, criteria, scored_at
		FROM page_scores WHERE path = ? ORDER BY run_id DESC LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("history: page trend: %w", err)
	}
	return scanPageScores(rows)
}

func scanPageScores(rows *sql.Rows) ([]PageScore, error) {
	defer rows.Close()
	var out []PageScore
	for rows.Next() {
		var ps PageScore
		var criteriaJSON string
		if err := rows.Scan(&ps.RunID, &ps.Path, &ps.Format, &ps.Overall, &ps.WordCount,
			&ps.IsStub, &ps.IsHub, &ps.Checksum, &criteriaJSON, &ps.ScoredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(criteriaJSON), &ps.Criteria); err != nil {
			ps.Criteria = nil
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
