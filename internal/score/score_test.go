package score

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
)

func testScorer() *Scorer {
	led := ledger.New([]ledger.Record{
		{SourcePath: "df-docs/df-docs/docs/security/api-keys.md", Title: "API Keys", TargetPage: "Security/API_Keys", Status: ledger.StatusInProgress},
		{SourcePath: "df-docs/df-docs/docs/faq.md", Title: "FAQ", TargetPage: "FAQ", Status: ledger.StatusMigrated},
	})
	return New(ledger.NewLinkIndex(led, nil), led)
}

func TestScore_FiveHundredWordsFullCredit(t *testing.T) {
	s := testScorer()
	content := "---\ntitle: T\n---\n" + strings.Repeat("alpha ", 500)
	got := s.Score(models.NewDocument("docs/guide.md", content))

	if got.WordCount != 500 {
		t.Fatalf("WordCount = %d, want 500", got.WordCount)
	}
	wc := got.Criteria[0]
	if wc.Score != 20 || !wc.Passed {
		t.Errorf("word count criterion = %.1f passed=%v, want 20 passed=true", wc.Score, wc.Passed)
	}
	if got.IsStub {
		t.Error("500-word page flagged as stub")
	}
}

func TestScore_FiftyWordsIsStub(t *testing.T) {
	s := testScorer()
	got := s.Score(models.NewDocument("docs/tiny.md", strings.Repeat("word ", 50)))

	if !got.IsStub {
		t.Fatal("50-word page not flagged as stub")
	}
	wc := got.Criteria[0]
	if wc.Score != 2.0 {
		t.Errorf("word count score = %.1f, want 2.0", wc.Score)
	}
	if wc.Severity != SeverityCritical {
		t.Errorf("severity = %s, want %s", wc.Severity, SeverityCritical)
	}
}

func TestScoreVersionCurrency_SingleHitCostsFour(t *testing.T) {
	got := scoreVersionCurrency("Install PHP 7.4 on the server")

	if got.Score != 16.0 {
		t.Fatalf("score = %.1f, want 16.0", got.Score)
	}
	if got.Severity != SeverityCritical {
		t.Errorf("severity = %s, want %s", got.Severity, SeverityCritical)
	}
	if len(got.Lines) != 1 || got.Lines[0] != 1 {
		t.Errorf("lines = %v, want [1]", got.Lines)
	}
	if !strings.Contains(got.Fix, `"PHP 7.4"`) || !strings.Contains(got.Fix, "PHP 8.1+") {
		t.Errorf("fix = %q, want match and remedy named", got.Fix)
	}
}

func TestScoreVersionCurrency_UpgradeContextExempt(t *testing.T) {
	got := scoreVersionCurrency("When migrating from PHP 7.4, update your config first")

	if got.Score != 20 || !got.Passed {
		t.Errorf("score = %.1f passed=%v, want 20 passed=true", got.Score, got.Passed)
	}
}

func TestScoreVersionCurrency_PenaltyCapped(t *testing.T) {
	content := strings.Join([]string{
		"PHP 5.6 setup",
		"MySQL 5.7 backend",
		"Ubuntu 16.04 host",
		"CentOS 6 host",
		"Apache 2.2 front",
		"call api/v1 now",
	}, "\n")
	got := scoreVersionCurrency(content)

	if got.Score != 0 {
		t.Errorf("score = %.1f, want 0 (penalty capped)", got.Score)
	}
	if len(got.Lines) != 6 {
		t.Errorf("len(lines) = %d, want 6", len(got.Lines))
	}
}

func TestScoreCrosslinks(t *testing.T) {
	cases := []struct {
		n        int
		isHub    bool
		want     float64
		severity Severity
	}{
		{25, true, 15, SeverityInfo},
		{20, true, 12.0, SeverityWarning},
		{0, true, 0, SeverityWarning},
		{4, false, 15, SeverityInfo},
		{2, false, 7.5, SeverityWarning},
		{0, false, 0, SeverityCritical},
	}
	for _, tc := range cases {
		got := scoreCrosslinks(tc.n, tc.isHub)
		if got.Score != tc.want {
			t.Errorf("scoreCrosslinks(%d, %v) = %.1f, want %.1f", tc.n, tc.isHub, got.Score, tc.want)
		}
		if got.Severity != tc.severity {
			t.Errorf("scoreCrosslinks(%d, %v) severity = %s, want %s", tc.n, tc.isHub, got.Severity, tc.severity)
		}
	}
}

func TestScore_TwentyLinksIsHub(t *testing.T) {
	s := testScorer()
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "[[Page %d]] and some words. ", i)
	}
	got := s.Score(models.NewDocument("docs/random-page.wiki", b.String()))

	if !got.IsHub {
		t.Fatal("20-link page not classified as hub")
	}
	cl := got.Criteria[2]
	if !strings.Contains(cl.Detail, "hub page") {
		t.Errorf("crosslink detail = %q, want hub classification", cl.Detail)
	}
	if cl.Score != 12.0 {
		t.Errorf("crosslink score = %.1f, want 12.0", cl.Score)
	}
}

func TestScore_IndexFileIsHub(t *testing.T) {
	s := testScorer()
	got := s.Score(models.NewDocument("docs/getting-started/index.md", "Short intro without links."))

	if !got.IsHub {
		t.Fatal("index.md not classified as hub")
	}
	cl := got.Criteria[2]
	// Held to the 25-link threshold, but a linkless hub is not an orphan.
	if cl.Severity != SeverityWarning {
		t.Errorf("severity = %s, want %s", cl.Severity, SeverityWarning)
	}
	if !strings.Contains(cl.Detail, "hub page needs 25+") {
		t.Errorf("detail = %q, want hub threshold named", cl.Detail)
	}
}

func TestScoreURLStructure_Hierarchical(t *testing.T) {
	s := testScorer()
	got := s.scoreURLStructure("df-docs/df-docs/docs/security/api-keys.md")

	if got.Score != 10 || !got.Passed {
		t.Errorf("score = %.1f passed=%v, want 10 passed=true", got.Score, got.Passed)
	}
	if !strings.Contains(got.Detail, "Security/API_Keys") {
		t.Errorf("detail = %q, want resolved target named", got.Detail)
	}
}

func TestScoreURLStructure_FlatTarget(t *testing.T) {
	s := testScorer()
	got := s.scoreURLStructure("df-docs/df-docs/docs/faq.md")

	if got.Score != 7.0 || !got.Passed {
		t.Errorf("score = %.1f passed=%v, want 7.0 passed=true", got.Score, got.Passed)
	}
	if got.Fix == "" {
		t.Error("flat target should suggest a hierarchical path")
	}
}

func TestScoreURLStructure_TargetNotInLedger(t *testing.T) {
	led := ledger.New([]ledger.Record{
		{SourcePath: "df-docs/df-docs/docs/security/api-keys.md", Title: "API Keys", TargetPage: "Security/API_Keys"},
	})
	// Index resolves, but the scorer's ledger knows no targets.
	s := New(ledger.NewLinkIndex(led, nil), ledger.Empty())
	got := s.scoreURLStructure("df-docs/df-docs/docs/security/api-keys.md")

	if got.Score != 5.0 || got.Passed {
		t.Errorf("score = %.1f passed=%v, want 5.0 passed=false", got.Score, got.Passed)
	}
}

func TestScoreURLStructure_Unresolved(t *testing.T) {
	s := testScorer()
	got := s.scoreURLStructure("docs/unknown/mystery.md")

	if got.Score != 0 || got.Passed {
		t.Errorf("score = %.1f passed=%v, want 0 passed=false", got.Score, got.Passed)
	}
}

func TestScoreStructuredData(t *testing.T) {
	jsonld := `<script type="application/ld+json">{"@type":"TechArticle"}</script>`
	if got := scoreStructuredData(jsonld); got.Score != 10 || !got.Passed {
		t.Errorf("jsonld score = %.1f passed=%v, want 10 passed=true", got.Score, got.Passed)
	}

	mention := "See https://schema.org/TechArticle for the vocabulary."
	if got := scoreStructuredData(mention); got.Score != 5.0 || got.Passed {
		t.Errorf("mention score = %.1f passed=%v, want 5.0 passed=false", got.Score, got.Passed)
	}

	got := scoreStructuredData("plain prose")
	if got.Score != 0 || got.Severity != SeverityInfo {
		t.Errorf("bare score = %.1f severity=%s, want 0 INFO", got.Score, got.Severity)
	}
	if got.Fix == "" {
		t.Error("bare result should explain the post-upload injection")
	}
}

func TestScoreCodeExamples(t *testing.T) {
	cases := []struct {
		name    string
		content string
		format  models.Format
		want    float64
	}{
		{"wiki syntaxhighlight", `<syntaxhighlight lang="bash">ls</syntaxhighlight>`, models.FormatWiki, 10},
		{"wiki pre and code", "<pre>x</pre> then <code>y</code>", models.FormatWiki, 10},
		{"md fenced", "```bash\nls\n```", models.FormatMarkdown, 10},
		{"md indented", "Intro\n\n    $ ls -la\n    done", models.FormatMarkdown, 10},
		{"md none", "Just words.", models.FormatMarkdown, 0},
	}
	for _, tc := range cases {
		if got := scoreCodeExamples(tc.content, tc.format); got.Score != tc.want {
			t.Errorf("%s: score = %.1f, want %.1f", tc.name, got.Score, tc.want)
		}
	}
}

func TestScoreCategories_WikiTags(t *testing.T) {
	got := scoreCategories("text\n[[Category:Security]]\n[[Category:API]]\n", models.FormatWiki, parser.FrontMatter{})
	if got.Score != 15 || !got.Passed {
		t.Fatalf("score = %.1f passed=%v, want 15 passed=true", got.Score, got.Passed)
	}
	if !strings.Contains(got.Detail, "Security") || !strings.Contains(got.Detail, "API") {
		t.Errorf("detail = %q, want tag names listed", got.Detail)
	}

	none := scoreCategories("untagged", models.FormatWiki, parser.FrontMatter{})
	if none.Score != 0 || none.Passed {
		t.Errorf("untagged score = %.1f passed=%v, want 0 passed=false", none.Score, none.Passed)
	}
}

func TestScoreCategories_TwoKeywordsScaled(t *testing.T) {
	fm := parser.FrontMatter{Keywords: []string{"api", "security"}}
	got := scoreCategories("body", models.FormatMarkdown, fm)

	if got.Score != 10.0 {
		t.Fatalf("score = %.1f, want 10.0", got.Score)
	}
	if !got.Passed {
		t.Error("keyworded page should pass even below target")
	}
	if got.Severity != SeverityWarning || got.Fix == "" {
		t.Errorf("severity = %s fix = %q, want warning with fix", got.Severity, got.Fix)
	}
}

func TestScoreCategories_ThreeKeywordsFullCredit(t *testing.T) {
	fm := parser.FrontMatter{Keywords: []string{"a", "b", "c"}}
	got := scoreCategories("body", models.FormatMarkdown, fm)
	if got.Score != 15 || got.Severity != SeverityInfo {
		t.Errorf("score = %.1f severity=%s, want 15 INFO", got.Score, got.Severity)
	}
}

func TestScore_OverallIsSumOfCriteria(t *testing.T) {
	s := testScorer()
	got := s.Score(models.NewDocument("docs/tiny.md", strings.Repeat("word ", 50)))

	if len(got.Criteria) != 7 {
		t.Fatalf("len(criteria) = %d, want 7", len(got.Criteria))
	}
	sum := 0.0
	maxSum := 0.0
	for _, c := range got.Criteria {
		sum += c.Score
		maxSum += c.MaxScore
	}
	if math.Abs(got.OverallScore-round1(sum)) > 1e-9 {
		t.Errorf("overall = %.1f, want sum %.1f", got.OverallScore, round1(sum))
	}
	if maxSum != 100 {
		t.Errorf("criterion weights sum = %.1f, want 100", maxSum)
	}
	if got.OverallScore < 0 || got.OverallScore > 100 {
		t.Errorf("overall = %.1f out of bounds", got.OverallScore)
	}
}

func TestRankedFixes_BiggestGapFirst(t *testing.T) {
	s := testScorer()
	result := s.Score(models.NewDocument("docs/unmapped/stub.md", "Ten short words that go nowhere and link nothing."))

	fixes := RankedFixes(result)
	if len(fixes) == 0 {
		t.Fatal("stub page produced no fixes")
	}
	if fixes[0].Name != NameWordCount {
		t.Errorf("fixes[0] = %s, want %s (gap 19+)", fixes[0].Name, NameWordCount)
	}
	for i := 1; i < len(fixes); i++ {
		prev := fixes[i-1].MaxScore - fixes[i-1].Score
		cur := fixes[i].MaxScore - fixes[i].Score
		if cur > prev {
			t.Fatalf("fixes out of order at %d: gap %.1f after %.1f", i, cur, prev)
		}
	}
}

func TestFormatTextReport(t *testing.T) {
	s := testScorer()
	result := s.Score(models.NewDocument("docs/unmapped/stub.md", "A few words."))
	report := FormatTextReport(result)

	for _, want := range []string{
		"Content Score: docs/unmapped/stub.md",
		"OVERALL",
		"Fix recommendations (by priority):",
		"1. [CRITICAL] Word Count",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestContentScore_CriterionScore(t *testing.T) {
	s := testScorer()
	got := s.Score(models.NewDocument("docs/tiny.md", strings.Repeat("word ", 50)))

	if v := got.CriterionScore(NameWordCount); v != got.Criteria[0].Score {
		t.Errorf("CriterionScore(word count) = %.1f, want %.1f", v, got.Criteria[0].Score)
	}
	if v := got.CriterionScore("Nonexistent"); v != 0 {
		t.Errorf("CriterionScore(unknown) = %.1f, want 0", v)
	}
}
