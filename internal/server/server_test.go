package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dreamfactorysoftware/df-wiki/internal/batch"
	"github.com/dreamfactorysoftware/df-wiki/internal/history"
	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// testEnv sets up a temp docs tree, history DB, ledger, and router.
// authToken empty means disabled mode.
func testEnv(t *testing.T, authToken string) (*history.DB, http.Handler, string) {
	t.Helper()

	docsDir := t.TempDir()
	store, err := storage.NewFS(docsDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "dfwiki-server-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	led := ledger.New([]ledger.Record{
		{SourcePath: "df-docs/df-docs/docs/security/api-keys.md", Title: "API Keys", TargetPage: "Security/API_Keys", Status: ledger.StatusMigrated},
		{SourcePath: "df-docs/df-docs/docs/faq.md", Title: "FAQ", TargetPage: "FAQ", Status: ledger.StatusNotStarted},
	})
	ix := ledger.NewLinkIndex(led, nil)
	h := NewHandler(db, led, ix, score.New(ix, led), store)
	router := NewRouter(h, authToken != "", authToken, nil)
	return db, router, docsDir
}

func recordTestRun(t *testing.T, db *history.DB, path string, overall float64) int64 {
	t.Helper()
	fs := batch.FileScore{
		ContentScore: score.ContentScore{FilePath: path, Format: "md", OverallScore: overall, WordCount: 200},
		Checksum:     "cs",
	}
	id, err := db.RecordRun("docs", batch.Stats{Files: 1, Average: overall}, []batch.FileScore{fs})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	return id
}

func TestListRuns(t *testing.T) {
	db, router, _ := testEnv(t, "")
	recordTestRun(t, db, "docs/a.md", 70)
	recordTestRun(t, db, "docs/a.md", 80)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RunListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if len(resp.Runs) == 2 && resp.Runs[0].ID < resp.Runs[1].ID {
		t.Error("runs not newest first")
	}
}

func TestLatestRun_Empty(t *testing.T) {
	_, router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRunScores(t *testing.T) {
	db, router, _ := testEnv(t, "")
	id := recordTestRun(t, db, "docs/a.md", 70)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+strconv.FormatInt(id, 10)+"/scores", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp RunScoresResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Scores) != 1 || resp.Scores[0].Path != "docs/a.md" {
		t.Errorf("scores = %+v, want one docs/a.md entry", resp.Scores)
	}
}

func TestPageTrend(t *testing.T) {
	db, router, _ := testEnv(t, "")
	recordTestRun(t, db, "docs/a.md", 40)
	recordTestRun(t, db, "docs/a.md", 90)

	req := httptest.NewRequest(http.MethodGet, "/pages/trend?path=docs%2Fa.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp TrendResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(resp.Points))
	}
	if resp.Points[0].Overall != 90 {
		t.Errorf("newest point = %.0f, want 90", resp.Points[0].Overall)
	}
}

func TestResolve_LedgeredAndFallback(t *testing.T) {
	_, router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/resolve?path=security%2Fapi-keys", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp ResolveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Target != "Security/API_Keys" || !resp.Resolved {
		t.Errorf("resolve = %+v, want Security/API_Keys resolved", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/resolve?path=guides%2Fquick-start", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Target != "Guides/Quick_Start" || resp.Resolved {
		t.Errorf("fallback = %+v, want Guides/Quick_Start unresolved", resp)
	}
}

func TestLedger_StatusFilter(t *testing.T) {
	_, router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/ledger?status=Not+Started", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp LedgerResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Records[0].Title != "FAQ" {
		t.Errorf("filtered ledger = %+v, want only FAQ", resp)
	}
}

func TestScore_AdHoc(t *testing.T) {
	_, router, docsDir := testEnv(t, "")
	content := "= Guide =\n\n" + strings.Repeat("word ", 120) + "\n\n[[Category:Guides]]\n"
	if err := os.WriteFile(filepath.Join(docsDir, "guide.wiki"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/score?path=guide.wiki", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ScoreResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Result.OverallScore <= 0 || resp.Result.OverallScore > 100 {
		t.Errorf("overall = %.1f, want in (0, 100]", resp.Result.OverallScore)
	}
	if len(resp.Result.Criteria) != 7 {
		t.Errorf("criteria = %d, want 7", len(resp.Result.Criteria))
	}
}

func TestScore_MissingDocument(t *testing.T) {
	_, router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/score?path=nope.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestAuth_TokenRequired(t *testing.T) {
	_, router, _ := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", w.Code)
	}
}
