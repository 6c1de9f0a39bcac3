package validate

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Report is the validation result for a docs tree.
type Report struct {
	Files  int     `json:"files"`
	Issues []Issue `json:"issues"`
}

// Count returns the number of issues at the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

// Gate maps the report to its CI exit status: 2 when nothing was checked,
// 1 when any Blocker was found, 0 otherwise.
func (r *Report) Gate() int {
	switch {
	case r.Files == 0:
		return 2
	case r.Count(SeverityBlocker) > 0:
		return 1
	}
	return 0
}

var severityOrder = []Severity{SeverityBlocker, SeverityMajor, SeverityMinor}

var reportColumns = []string{"file", "check", "severity", "description"}

// FormatSummary renders the severity and check breakdowns for terminal
// output.
func FormatSummary(rep *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validated %d files, %d issues found\n", rep.Files, len(rep.Issues))

	b.WriteString("\nBy severity:\n")
	for _, sev := range severityOrder {
		fmt.Fprintf(&b, "  %-8s %d\n", string(sev)+":", rep.Count(sev))
	}

	checks := make(map[string]int)
	var order []string
	for _, is := range rep.Issues {
		if checks[is.Check] == 0 {
			order = append(order, is.Check)
		}
		checks[is.Check]++
	}
	if len(order) > 0 {
		b.WriteString("\nBy check:\n")
		for _, name := range order {
			fmt.Fprintf(&b, "  %-18s %d\n", name+":", checks[name])
		}
	}

	if rep.Count(SeverityBlocker) > 0 {
		b.WriteString("\nFAIL: blocking issues found\n")
	} else {
		b.WriteString("\nPASS\n")
	}
	return b.String()
}

// WriteCSV encodes issues for spreadsheet triage.
func WriteCSV(w io.Writer, issues []Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportColumns); err != nil {
		return err
	}
	for _, is := range issues {
		row := []string{is.File, is.Check, string(is.Severity), is.Description}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the issues to path through an atomic rename.
func SaveCSV(path string, issues []Issue) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, issues); err != nil {
		return fmt.Errorf("validate: encode csv: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("validate: mkdir: %w", err)
		}
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("validate: save %s: %w", path, err)
	}
	return nil
}
