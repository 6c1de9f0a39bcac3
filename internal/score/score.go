// Package score evaluates documentation files against the seven weighted
// quality criteria of the migration rubric. The weights sum to 100, so an
// overall score always lands in 0..100.
package score

import (
	"math"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
)

// Severity grades a criterion finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Criterion names, in evaluation order.
const (
	NameWordCount       = "Word Count"
	NameVersionCurrency = "Version Currency"
	NameCrosslinks      = "Cross-linking Density"
	NameURLStructure    = "URL Structure"
	NameStructuredData  = "Structured Data"
	NameCodeExamples    = "Code Examples"
	NameCategories      = "Categories"
)

// Criterion weights. They sum to 100.
const (
	weightWordCount       = 20.0
	weightVersionCurrency = 20.0
	weightCrosslinks      = 15.0
	weightURLStructure    = 10.0
	weightStructuredData  = 10.0
	weightCodeExamples    = 10.0
	weightCategories      = 15.0
)

// stubWordCount is the boundary below which a page is a stub.
const stubWordCount = 100

// CriterionResult is the outcome of one scoring criterion.
type CriterionResult struct {
	Name     string   `json:"name"`
	Score    float64  `json:"score"`
	MaxScore float64  `json:"max_score"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
	Fix      string   `json:"fix,omitempty"`
	Lines    []int    `json:"lines,omitempty"`
}

// Pct returns the score as a percentage of the maximum.
func (c CriterionResult) Pct() float64 {
	if c.MaxScore == 0 {
		return 0
	}
	return c.Score / c.MaxScore * 100
}

// ContentScore is the complete evaluation of one document. Criteria hold
// the seven results in evaluation order.
type ContentScore struct {
	FilePath     string            `json:"file_path"`
	Format       models.Format     `json:"format"`
	OverallScore float64           `json:"overall_score"`
	Criteria     []CriterionResult `json:"criteria"`
	WordCount    int               `json:"word_count"`
	IsStub       bool              `json:"is_stub"`
	IsHub        bool              `json:"is_hub"`
}

// CriterionScore returns the score of the named criterion, 0 when absent.
func (cs ContentScore) CriterionScore(name string) float64 {
	for _, c := range cs.Criteria {
		if c.Name == name {
			return c.Score
		}
	}
	return 0
}

// Scorer evaluates documents against a shared read-only ledger and link
// index.
type Scorer struct {
	index  *ledger.LinkIndex
	ledger *ledger.Ledger
}

// New builds a Scorer. With an empty ledger the URL-structure criterion
// cannot resolve anything and scores zero; the other six are unaffected.
func New(ix *ledger.LinkIndex, led *ledger.Ledger) *Scorer {
	return &Scorer{index: ix, ledger: led}
}

// Score evaluates a document against all seven criteria. Word counting is
// inclusive of code block content, unlike the inventory count: code
// contributes to page substance.
func (s *Scorer) Score(doc *models.Document) ContentScore {
	var fm parser.FrontMatter
	body := doc.Content
	if doc.Format == models.FormatMarkdown {
		fm, body = parser.ParseFrontMatter([]byte(doc.Content))
	}

	wordCount := parser.CountWords(doc.Content, doc.Format)

	var links []string
	if doc.Format == models.FormatWiki {
		links = parser.ExtractWikiLinks(doc.Content)
	} else {
		links = parser.ExtractMarkdownLinks(body)
	}
	isHub := ledger.IsHub(doc.Path, len(links), s.index, s.ledger)

	criteria := []CriterionResult{
		scoreWordCount(wordCount),
		scoreVersionCurrency(doc.Content),
		scoreCrosslinks(len(links), isHub),
		s.scoreURLStructure(doc.Path),
		scoreStructuredData(doc.Content),
		scoreCodeExamples(doc.Content, doc.Format),
		scoreCategories(doc.Content, doc.Format, fm),
	}

	overall := 0.0
	for _, c := range criteria {
		overall += c.Score
	}

	return ContentScore{
		FilePath:     doc.Path,
		Format:       doc.Format,
		OverallScore: round1(overall),
		Criteria:     criteria,
		WordCount:    wordCount,
		IsStub:       wordCount < stubWordCount,
		IsHub:        isHub,
	}
}

// round1 rounds to one decimal, the rubric's published precision.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
