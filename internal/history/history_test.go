package history

import (
	"errors"
	"os"
	"testing"

	"github.com/dreamfactorysoftware/df-wiki/internal/apperr"
	"github.com/dreamfactorysoftware/df-wiki/internal/batch"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "dfwiki-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fileScore(path string, overall float64, stub bool) batch.FileScore {
	return batch.FileScore{
		ContentScore: score.ContentScore{
			FilePath:     path,
			Format:       "md",
			OverallScore: overall,
			WordCount:    250,
			IsStub:       stub,
			Criteria: []score.CriterionResult{
				{Name: score.NameWordCount, Score: 10, MaxScore: 20, Severity: score.SeverityWarning},
			},
		},
		Checksum: "cs-" + path,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM page_scores`).Scan(&count); err != nil {
		t.Fatalf("page_scores table missing: %v", err)
	}
}

func TestRecordRunAndReadBack(t *testing.T) {
	db := testDB(t)
	scores := []batch.FileScore{
		fileScore("docs/a.md", 72.5, false),
		fileScore("docs/b.md", 31.0, true),
	}
	st := batch.Stats{Files: 2, Average: 51.75, Lowest: 31.0, Highest: 72.5, Stubs: 1}

	runID, err := db.RecordRun("docs", st, scores)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	run, err := db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run.ID != runID {
		t.Errorf("latest run id = %d, want %d", run.ID, runID)
	}
	if run.Files != 2 || run.Stubs != 1 {
		t.Errorf("run aggregates = %d files %d stubs, want 2 files 1 stub", run.Files, run.Stubs)
	}

	got, err := db.RunScores(runID)
	if err != nil {
		t.Fatalf("RunScores: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(got))
	}
	if got[0].Path != "docs/a.md" || got[0].Overall != 72.5 {
		t.Errorf("first score = %q %.1f, want docs/a.md 72.5", got[0].Path, got[0].Overall)
	}
	if len(got[0].Criteria) != 1 || got[0].Criteria[0].Name != score.NameWordCount {
		t.Errorf("criteria did not round-trip: %+v", got[0].Criteria)
	}
}

func TestLatestRun_EmptyStore(t *testing.T) {
	db := testDB(t)
	_, err := db.LatestRun()
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("LatestRun on empty store = %v, want ErrNotFound", err)
	}
}

func TestUpsertPageScore_RefreshesAggregates(t *testing.T) {
	db := testDB(t)
	runID, err := db.StartRun("docs")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	if err := db.UpsertPageScore(runID, fileScore("docs/a.md", 40, true)); err != nil {
		t.Fatalf("UpsertPageScore: %v", err)
	}
	if err := db.UpsertPageScore(runID, fileScore("docs/a.md", 80, false)); err != nil {
		t.Fatalf("UpsertPageScore (update): %v", err)
	}

	run, err := db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run.Files != 1 {
		t.Errorf("files = %d, want 1 after upsert of same path", run.Files)
	}
	if run.Average != 80 || run.Stubs != 0 {
		t.Errorf("aggregates = avg %.1f stubs %d, want avg 80 stubs 0", run.Average, run.Stubs)
	}

	cs, err := db.PageChecksum(runID, "docs/a.md")
	if err != nil {
		t.Fatalf("PageChecksum: %v", err)
	}
	if cs != "cs-docs/a.md" {
		t.Errorf("checksum = %q, want %q", cs, "cs-docs/a.md")
	}
}

func TestDeletePageScore(t *testing.T) {
	db := testDB(t)
	runID, _ := db.StartRun("docs")
	_ = db.UpsertPageScore(runID, fileScore("docs/gone.md", 55, false))

	if err := db.DeletePageScore(runID, "docs/gone.md"); err != nil {
		t.Fatalf("DeletePageScore: %v", err)
	}
	scores, err := db.RunScores(runID)
	if err != nil {
		t.Fatalf("RunScores: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected 0 scores after delete, got %d", len(scores))
	}
	run, _ := db.LatestRun()
	if run.Files != 0 {
		t.Errorf("files = %d, want 0 after delete", run.Files)
	}
}

func TestPageTrend_NewestFirst(t *testing.T) {
	db := testDB(t)
	for _, overall := range []float64{40, 60, 85} {
		_, err := db.RecordRun("docs", batch.Stats{Files: 1}, []batch.FileScore{fileScore("docs/a.md", overall, false)})
		if err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	trend, err := db.PageTrend("docs/a.md", 10)
	if err != nil {
		t.Fatalf("PageTrend: %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("expected 3 trend points, got %d", len(trend))
	}
	if trend[0].Overall != 85 || trend[2].Overall != 40 {
		t.Errorf("trend order = %.0f..%.0f, want 85..40", trend[0].Overall, trend[2].Overall)
	}
}
