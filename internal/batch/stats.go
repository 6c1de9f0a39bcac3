package batch

import (
	"fmt"
	"sort"
	"strings"
)

// bottomN is how many worst-scoring files the summary lists.
const bottomN = 10

// Stats aggregates a scoring run for the summary report and the history
// store.
type Stats struct {
	Files     int     `json:"files"`
	Average   float64 `json:"average"`
	Highest   float64 `json:"highest"`
	Lowest    float64 `json:"lowest"`
	Stubs     int     `json:"stubs"`
	Hubs      int     `json:"hubs"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"skipped"`
	Threshold int     `json:"threshold,omitempty"`
	Passing   int     `json:"passing,omitempty"`
	Failing   int     `json:"failing,omitempty"`

	// LedgerMissing marks a run scored without the migration inventory,
	// so URL-structure results are degraded rather than authoritative.
	LedgerMissing bool `json:"ledger_missing,omitempty"`

	Bottom   []Standing      `json:"bottom,omitempty"`
	Criteria []CriterionStat `json:"criteria,omitempty"`
}

// Standing is one row of the bottom-N list.
type Standing struct {
	Path    string  `json:"path"`
	Overall float64 `json:"overall"`
	IsStub  bool    `json:"is_stub"`
	IsHub   bool    `json:"is_hub"`
}

// CriterionStat is the cross-run average for one criterion.
type CriterionStat struct {
	Name    string  `json:"name"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
}

// Compute aggregates a finished run. A threshold of 0 disables the
// pass/fail gate counts.
func Compute(run *ScoreRun, threshold int) Stats {
	st := Stats{
		Files:     len(run.Scores),
		Failed:    len(run.Failures),
		Skipped:   run.SkippedDrafts,
		Threshold: threshold,
	}
	if st.Files == 0 {
		return st
	}

	sum := 0.0
	st.Highest = run.Scores[0].OverallScore
	st.Lowest = run.Scores[0].OverallScore
	for _, fs := range run.Scores {
		sum += fs.OverallScore
		if fs.OverallScore > st.Highest {
			st.Highest = fs.OverallScore
		}
		if fs.OverallScore < st.Lowest {
			st.Lowest = fs.OverallScore
		}
		if fs.IsStub {
			st.Stubs++
		}
		if fs.IsHub {
			st.Hubs++
		}
		if threshold > 0 && fs.OverallScore >= float64(threshold) {
			st.Passing++
		}
	}
	st.Average = sum / float64(st.Files)
	if threshold > 0 {
		st.Failing = st.Files - st.Passing
	}

	ranked := make([]Standing, 0, st.Files)
	for _, fs := range run.Scores {
		ranked = append(ranked, Standing{Path: fs.FilePath, Overall: fs.OverallScore, IsStub: fs.IsStub, IsHub: fs.IsHub})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Overall < ranked[j].Overall })
	if len(ranked) > bottomN {
		ranked = ranked[:bottomN]
	}
	st.Bottom = ranked

	// All scores carry the seven criteria in the same order, so averaging
	// by position keeps evaluation order in the output.
	for idx, c := range run.Scores[0].Criteria {
		total := 0.0
		for _, fs := range run.Scores {
			total += fs.Criteria[idx].Score
		}
		st.Criteria = append(st.Criteria, CriterionStat{
			Name:    c.Name,
			Average: total / float64(st.Files),
			Max:     c.MaxScore,
		})
	}
	return st
}

// Gate maps the run to its CI exit status: 2 when nothing was scored,
// 1 when any file failed or scored below the threshold, 0 otherwise.
func (st Stats) Gate() int {
	switch {
	case st.Files == 0:
		return 2
	case st.Failed > 0 || (st.Threshold > 0 && st.Failing > 0):
		return 1
	default:
		return 0
	}
}

// FormatSummary renders the run summary block.
func FormatSummary(st Stats) string {
	if st.Files == 0 {
		if st.LedgerMissing {
			return "No files scored (ledger unavailable).\n"
		}
		return "No files scored.\n"
	}

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	b.WriteString(rule + "\n")
	b.WriteString("CONTENT SCORE SUMMARY\n")
	b.WriteString(rule + "\n")
	if st.LedgerMissing {
		b.WriteString("Ledger:          UNAVAILABLE (URL-structure scores degraded)\n")
	}
	fmt.Fprintf(&b, "Files scored:    %d\n", st.Files)
	fmt.Fprintf(&b, "Average score:   %.1f/100\n", st.Average)
	fmt.Fprintf(&b, "Highest:         %.1f\n", st.Highest)
	fmt.Fprintf(&b, "Lowest:          %.1f\n", st.Lowest)
	fmt.Fprintf(&b, "Stubs (<100w):   %d\n", st.Stubs)
	fmt.Fprintf(&b, "Hub pages:       %d\n", st.Hubs)
	if st.Skipped > 0 {
		fmt.Fprintf(&b, "Skipped drafts:  %d\n", st.Skipped)
	}
	if st.Failed > 0 {
		fmt.Fprintf(&b, "Failed:          %d\n", st.Failed)
	}
	if st.Threshold > 0 {
		fmt.Fprintf(&b, "Threshold:       %d\n", st.Threshold)
		fmt.Fprintf(&b, "Passing:         %d (%.0f%%)\n", st.Passing, float64(st.Passing)/float64(st.Files)*100)
		fmt.Fprintf(&b, "Failing:         %d (%.0f%%)\n", st.Failing, float64(st.Failing)/float64(st.Files)*100)
	}

	fmt.Fprintf(&b, "\nBottom %d files:\n", len(st.Bottom))
	for _, s := range st.Bottom {
		tag := ""
		if s.IsStub {
			tag += " [STUB]"
		}
		if s.IsHub {
			tag += " [HUB]"
		}
		fmt.Fprintf(&b, "  %5.1f  %s%s\n", s.Overall, s.Path, tag)
	}

	b.WriteString("\nPer-criterion averages:\n")
	for _, c := range st.Criteria {
		fmt.Fprintf(&b, "  %-25s  %5.1f/%.0f  (%.0f%%)\n", c.Name, c.Average, c.Max, c.Average/c.Max*100)
	}

	b.WriteString(rule + "\n")
	return b.String()
}
