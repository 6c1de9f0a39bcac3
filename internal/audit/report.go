package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// verdictSections orders the report buckets, most urgent first.
var verdictSections = []struct {
	verdict Verdict
	title   string
}{
	{VerdictOutdated, "OUTDATED - Needs Rewriting"},
	{VerdictMixed, "MIXED - Has Both Old and New Language"},
	{VerdictReview, "REVIEW - Describes the Product but Missing Anchor Language"},
	{VerdictAligned, "ALIGNED - Matches Golden Anchor"},
}

var reportColumns = []string{"page", "line", "verdict", "sentence", "matched"}

// FormatReport renders the bucketed text report with the golden anchors
// up top and the summary block at the end.
func FormatReport(rep *Report) string {
	rule := strings.Repeat("=", 80)
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("DREAMFACTORY MESSAGING AUDIT\n")
	b.WriteString(rule + "\n\n")
	b.WriteString("Golden anchor (short):\n")
	b.WriteString(wrapText(AnchorShort, 76, "  ", "  ") + "\n\n")
	b.WriteString("Golden anchor (long):\n")
	b.WriteString(wrapText(AnchorLong, 76, "  ", "  ") + "\n\n")
	b.WriteString(strings.Repeat("-", 80) + "\n\n")

	for _, sec := range verdictSections {
		bucket := rep.Bucket(sec.verdict)
		b.WriteString(rule + "\n")
		fmt.Fprintf(&b, "  %s  (%d found)\n", sec.title, len(bucket))
		b.WriteString(rule + "\n\n")
		if len(bucket) == 0 {
			b.WriteString("  (none)\n\n")
			continue
		}
		for i, f := range bucket {
			formatFinding(&b, i+1, f)
		}
	}

	b.WriteString(rule + "\n")
	b.WriteString("  SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  Total pages scanned:        %d\n", rep.Pages)
	fmt.Fprintf(&b, "  Total findings:             %d\n", len(rep.Findings))
	b.WriteString("  ----\n")
	fmt.Fprintf(&b, "  OUTDATED (needs rewrite):   %d\n", len(rep.Bucket(VerdictOutdated)))
	fmt.Fprintf(&b, "  MIXED (needs review):       %d\n", len(rep.Bucket(VerdictMixed)))
	fmt.Fprintf(&b, "  REVIEW (no anchor):         %d\n", len(rep.Bucket(VerdictReview)))
	fmt.Fprintf(&b, "  ALIGNED (looks good):       %d\n", len(rep.Bucket(VerdictAligned)))

	if pages := rep.PagesNeedingWork(); len(pages) > 0 {
		fmt.Fprintf(&b, "\n  Pages needing attention (%d):\n", len(pages))
		for _, p := range pages {
			fmt.Fprintf(&b, "    - [[%s]]\n", p)
		}
	}
	return b.String()
}

func formatFinding(b *strings.Builder, idx int, f Finding) {
	fmt.Fprintf(b, "  %d. Page: [[%s]]  (line %s)\n", idx, f.Page, f.Line)
	b.WriteString(wrapText(f.Sentence, 76, "     Text: ", "           "))
	b.WriteByte('\n')
	fmt.Fprintf(b, "     Verdict: %s\n", f.Verdict)
	if len(f.Matched) > 0 {
		fmt.Fprintf(b, "     Matched: %s\n", strings.Join(f.Matched, ", "))
	}
	b.WriteByte('\n')
}

// wrapText greedily wraps words at width with the given indents. A word
// longer than the width gets its own line.
func wrapText(s string, width int, initial, subsequent string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return initial
	}
	var b strings.Builder
	line := initial + words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			b.WriteString(line)
			b.WriteByte('\n')
			line = subsequent + w
			continue
		}
		line += " " + w
	}
	b.WriteString(line)
	return b.String()
}

// WriteCSV encodes findings for spreadsheet triage.
func WriteCSV(w io.Writer, findings []Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportColumns); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{f.Page, f.Line, string(f.Verdict), f.Sentence, strings.Join(f.Matched, ", ")}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the findings to path through an atomic rename.
func SaveCSV(path string, findings []Finding) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, findings); err != nil {
		return fmt.Errorf("audit: encode csv: %w", err)
	}
	return save(path, buf.Bytes())
}

// SaveJSON writes the full report as indented JSON.
func SaveJSON(path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("audit: encode json: %w", err)
	}
	return save(path, append(data, '\n'))
}

func save(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("audit: mkdir: %w", err)
		}
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("audit: save %s: %w", path, err)
	}
	return nil
}
