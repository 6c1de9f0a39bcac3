package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/rewrite"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRunner(t *testing.T, files map[string]string, led *ledger.Ledger, workers int) (*Runner, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir fixture: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ix := ledger.NewLinkIndex(led, nil)
	r := New(store, score.New(ix, led), rewrite.New(ix, led), ledger.NewDraftFilter(led, ix), testLogger(), workers)
	return r, root
}

func draftLedger() *ledger.Ledger {
	return ledger.New([]ledger.Record{
		{SourcePath: "df-docs/df-docs/docs/drafts/empty-page.md", Title: "Empty", TargetPage: "Drafts/Empty_Page", Status: ledger.StatusSkipDraft},
	})
}

func fakeScore(path string, overall float64, stub, hub bool) FileScore {
	return FileScore{ContentScore: score.ContentScore{
		FilePath:     path,
		Format:       models.FormatMarkdown,
		OverallScore: overall,
		IsStub:       stub,
		IsHub:        hub,
		Criteria: []score.CriterionResult{
			{Name: "A", Score: overall / 10, MaxScore: 10},
			{Name: "B", Score: overall / 20, MaxScore: 5},
		},
	}}
}

func TestScoreTree_WalkOrderAndSkips(t *testing.T) {
	files := map[string]string{
		"security/api-keys.md":             "Key management words here.",
		"getting-started/install.md":       "Install words.",
		"drafts/empty-page.md":             "tiny",
		".obsidian/cache.md":               "hidden",
		"getting-started/_ai-reference.md": "companion",
		"legacy/home.wiki":                 "= Home =\nBody.",
	}
	r, _ := testRunner(t, files, draftLedger(), 4)

	run, err := r.ScoreTree(context.Background())
	if err != nil {
		t.Fatalf("ScoreTree: %v", err)
	}
	if len(run.Failures) != 0 {
		t.Fatalf("failures = %v, want none", run.Failures)
	}
	if run.SkippedDrafts != 1 {
		t.Errorf("SkippedDrafts = %d, want 1", run.SkippedDrafts)
	}

	wantOrder := []string{
		"getting-started/install.md",
		"security/api-keys.md",
		"legacy/home.wiki",
	}
	if len(run.Scores) != len(wantOrder) {
		t.Fatalf("len(scores) = %d, want %d", len(run.Scores), len(wantOrder))
	}
	for i, want := range wantOrder {
		if run.Scores[i].FilePath != want {
			t.Errorf("scores[%d] = %q, want %q", i, run.Scores[i].FilePath, want)
		}
	}
	if run.Scores[0].Checksum == "" {
		t.Error("checksum not carried into FileScore")
	}
}

func TestScoreTree_CancelledContext(t *testing.T) {
	r, _ := testRunner(t, map[string]string{"a.md": "words"}, ledger.Empty(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.ScoreTree(ctx); err == nil {
		t.Fatal("want error from cancelled context")
	}
}

func TestCompute_Aggregates(t *testing.T) {
	run := &ScoreRun{
		Scores: []FileScore{
			fakeScore("a.md", 80, false, false),
			fakeScore("b.md", 40, true, false),
			fakeScore("c.md", 60, false, true),
		},
		SkippedDrafts: 2,
	}
	st := Compute(run, 70)

	if st.Files != 3 || st.Skipped != 2 || st.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d, want 3/2/0", st.Files, st.Skipped, st.Failed)
	}
	if st.Average != 60.0 || st.Highest != 80.0 || st.Lowest != 40.0 {
		t.Errorf("avg/high/low = %.1f/%.1f/%.1f, want 60.0/80.0/40.0", st.Average, st.Highest, st.Lowest)
	}
	if st.Stubs != 1 || st.Hubs != 1 {
		t.Errorf("stubs/hubs = %d/%d, want 1/1", st.Stubs, st.Hubs)
	}
	if st.Passing != 1 || st.Failing != 2 {
		t.Errorf("passing/failing = %d/%d, want 1/2", st.Passing, st.Failing)
	}

	wantBottom := []string{"b.md", "c.md", "a.md"}
	for i, want := range wantBottom {
		if st.Bottom[i].Path != want {
			t.Errorf("bottom[%d] = %q, want %q", i, st.Bottom[i].Path, want)
		}
	}

	if len(st.Criteria) != 2 {
		t.Fatalf("len(criteria) = %d, want 2", len(st.Criteria))
	}
	if st.Criteria[0].Name != "A" || st.Criteria[0].Average != 6.0 || st.Criteria[0].Max != 10 {
		t.Errorf("criteria[0] = %+v, want A 6.0/10", st.Criteria[0])
	}
	if st.Criteria[1].Average != 3.0 {
		t.Errorf("criteria[1] average = %.1f, want 3.0", st.Criteria[1].Average)
	}
}

func TestStats_Gate(t *testing.T) {
	empty := Compute(&ScoreRun{}, 0)
	if got := empty.Gate(); got != 2 {
		t.Errorf("empty gate = %d, want 2", got)
	}

	failed := Compute(&ScoreRun{
		Scores:   []FileScore{fakeScore("a.md", 90, false, false)},
		Failures: []Failure{{Path: "b.md", Err: errors.New("boom")}},
	}, 0)
	if got := failed.Gate(); got != 1 {
		t.Errorf("failed gate = %d, want 1", got)
	}

	below := Compute(&ScoreRun{Scores: []FileScore{fakeScore("a.md", 40, true, false)}}, 70)
	if got := below.Gate(); got != 1 {
		t.Errorf("below-threshold gate = %d, want 1", got)
	}

	clean := Compute(&ScoreRun{Scores: []FileScore{fakeScore("a.md", 90, false, false)}}, 70)
	if got := clean.Gate(); got != 0 {
		t.Errorf("clean gate = %d, want 0", got)
	}
}

func TestFormatSummary_Layout(t *testing.T) {
	run := &ScoreRun{
		Scores: []FileScore{
			fakeScore("a.md", 80, false, false),
			fakeScore("b.md", 40, true, false),
			fakeScore("c.md", 60, false, true),
		},
	}
	out := FormatSummary(Compute(run, 70))

	for _, want := range []string{
		"CONTENT SCORE SUMMARY",
		"Files scored:    3",
		"Average score:   60.0/100",
		"Highest:         80.0",
		"Lowest:          40.0",
		"Stubs (<100w):   1",
		"Hub pages:       1",
		"Threshold:       70",
		"Passing:         1 (33%)",
		"Failing:         2 (67%)",
		"Bottom 3 files:",
		"   40.0  b.md [STUB]",
		"   60.0  c.md [HUB]",
		"Per-criterion averages:",
		"6.0/10  (60%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSummary_Empty(t *testing.T) {
	if got := FormatSummary(Compute(&ScoreRun{}, 0)); got != "No files scored.\n" {
		t.Errorf("got = %q, want %q", got, "No files scored.\n")
	}
}

func TestFormatSummary_LedgerMissingMarker(t *testing.T) {
	run := &ScoreRun{Scores: []FileScore{fakeScore("a.md", 80, false, false)}}

	st := Compute(run, 0)
	st.LedgerMissing = true
	out := FormatSummary(st)
	if !strings.Contains(out, "Ledger:          UNAVAILABLE") {
		t.Errorf("summary missing ledger marker:\n%s", out)
	}

	if out := FormatSummary(Compute(run, 0)); strings.Contains(out, "UNAVAILABLE") {
		t.Errorf("marker rendered with ledger present:\n%s", out)
	}

	empty := Compute(&ScoreRun{}, 0)
	empty.LedgerMissing = true
	want := "No files scored (ledger unavailable).\n"
	if got := FormatSummary(empty); got != want {
		t.Errorf("got = %q, want %q", got, want)
	}
}

func TestWriteCSV_HeaderAndRow(t *testing.T) {
	led := ledger.Empty()
	s := score.New(ledger.NewLinkIndex(led, nil), led)
	cs := s.Score(models.NewDocument("docs/a.md", "hello world"))

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []FileScore{{ContentScore: cs, Checksum: "c"}}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if got, want := strings.Join(rows[0], ","), strings.Join(reportColumns, ","); got != want {
		t.Errorf("header = %q, want %q", got, want)
	}

	row := rows[1]
	if row[0] != "docs/a.md" || row[1] != "md" {
		t.Errorf("identity = %q/%q, want docs/a.md/md", row[0], row[1])
	}
	if row[2] != "20.1" {
		t.Errorf("overall = %q, want 20.1", row[2])
	}
	if row[4] != "true" {
		t.Errorf("is_stub = %q, want true", row[4])
	}
	if !strings.Contains(row[13], "Expand content") {
		t.Errorf("top_fix = %q, want word-count fix first", row[13])
	}
}

func TestRewriteTree_InPlace(t *testing.T) {
	files := map[string]string{
		"guide.md":  "---\ntitle: Guide\ndescription: How to\n---\nIntro.\n\n![shot](/img/a.png)\n",
		"done.wiki": "= Done =\nBody text.\n",
	}
	r, root := testRunner(t, files, ledger.Empty(), 1)

	run, err := r.RewriteTree(context.Background(), "")
	if err != nil {
		t.Fatalf("RewriteTree: %v", err)
	}
	if len(run.Failures) != 0 {
		t.Fatalf("failures = %v, want none", run.Failures)
	}
	if len(run.Changed) != 1 || run.Changed[0] != "guide.md" {
		t.Errorf("changed = %v, want [guide.md]", run.Changed)
	}
	if run.Unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", run.Unchanged)
	}

	got, err := os.ReadFile(filepath.Join(root, "guide.md"))
	if err != nil {
		t.Fatalf("read rewritten file: %v", err)
	}
	text := string(got)
	for _, want := range []string{"= Guide =", "'''How to'''", "[[File:a.png|thumb|shot]]"} {
		if !strings.Contains(text, want) {
			t.Errorf("rewritten text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "title: Guide") {
		t.Error("front matter survived the rewrite")
	}
}

func TestRewriteTree_OutputTree(t *testing.T) {
	files := map[string]string{
		"guide.md":  "---\ntitle: Guide\ndescription: How to\n---\nIntro.\n\n![shot](/img/a.png)\n",
		"done.wiki": "= Done =\nBody text.\n",
	}
	r, root := testRunner(t, files, ledger.Empty(), 2)
	out := filepath.Join(t.TempDir(), "converted")

	run, err := r.RewriteTree(context.Background(), out)
	if err != nil {
		t.Fatalf("RewriteTree: %v", err)
	}
	if len(run.Changed) != 1 || run.Changed[0] != "guide.md" {
		t.Errorf("changed = %v, want [guide.md]", run.Changed)
	}

	converted, err := os.ReadFile(filepath.Join(out, "guide.wiki"))
	if err != nil {
		t.Fatalf("read output-tree file: %v", err)
	}
	if !strings.Contains(string(converted), "[[File:a.png|thumb|shot]]") {
		t.Errorf("converted text = %q, want image ref", converted)
	}
	if _, err := os.Stat(filepath.Join(out, "done.wiki")); err != nil {
		t.Errorf("unchanged wiki file not copied to output tree: %v", err)
	}

	source, err := os.ReadFile(filepath.Join(root, "guide.md"))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if !strings.Contains(string(source), "title: Guide") {
		t.Error("source tree modified during output-tree rewrite")
	}
}
