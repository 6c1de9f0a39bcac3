package batch

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// reportColumns is the batch report header: identity, flags, per-criterion
// scores, then the highest-priority fix.
var reportColumns = []string{
	"file_path", "format", "overall_score", "word_count", "is_stub", "is_hub",
	"word_count_score", "version_currency_score", "crosslinks_score",
	"url_structure_score", "structured_data_score", "code_examples_score",
	"categories_score", "top_fix",
}

// WriteCSV writes one report row per scored file.
func WriteCSV(w io.Writer, scores []FileScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportColumns); err != nil {
		return fmt.Errorf("batch: write csv header: %w", err)
	}
	for _, fs := range scores {
		topFix := ""
		if fixes := score.RankedFixes(fs.ContentScore); len(fixes) > 0 {
			topFix = fixes[0].Fix
		}
		row := []string{
			fs.FilePath,
			string(fs.Format),
			num(fs.OverallScore),
			strconv.Itoa(fs.WordCount),
			strconv.FormatBool(fs.IsStub),
			strconv.FormatBool(fs.IsHub),
			num(fs.CriterionScore(score.NameWordCount)),
			num(fs.CriterionScore(score.NameVersionCurrency)),
			num(fs.CriterionScore(score.NameCrosslinks)),
			num(fs.CriterionScore(score.NameURLStructure)),
			num(fs.CriterionScore(score.NameStructuredData)),
			num(fs.CriterionScore(score.NameCodeExamples)),
			num(fs.CriterionScore(score.NameCategories)),
			topFix,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("batch: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("batch: flush csv: %w", err)
	}
	return nil
}

// SaveCSV writes the report file atomically.
func SaveCSV(path string, scores []FileScore) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, scores); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("batch: mkdir report dir: %w", err)
	}
	return storage.WriteFileAtomic(path, buf.Bytes())
}

// num renders a score with the rubric's one-decimal precision.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
