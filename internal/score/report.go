package score

import (
	"fmt"
	"sort"
	"strings"
)

// RankedFixes returns the criteria carrying a fix, ordered by point gap
// descending. Ties keep evaluation order.
func RankedFixes(result ContentScore) []CriterionResult {
	var fixes []CriterionResult
	for _, c := range result.Criteria {
		if c.Fix != "" {
			fixes = append(fixes, c)
		}
	}
	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].MaxScore-fixes[i].Score > fixes[j].MaxScore-fixes[j].Score
	})
	return fixes
}

// FormatTextReport renders the single-document report: a criterion table
// followed by fix recommendations, biggest point gap first.
func FormatTextReport(result ContentScore) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Content Score: %s\n", result.FilePath)
	fmt.Fprintf(&b, "Format: %s  |  Words: %d  |  Hub: %s  |  Stub: %s\n\n",
		result.Format, result.WordCount, yesNo(result.IsHub), yesNo(result.IsStub))

	fmt.Fprintf(&b, "%-3s %-25s %6s %5s %-8s %s\n", "#", "Criterion", "Score", "Max", "Status", "Detail")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for i, c := range result.Criteria {
		status := "FAIL"
		if c.Passed {
			status = "PASS"
		}
		fmt.Fprintf(&b, "%-3d %-25s %6.1f %5.0f %-8s %s\n", i+1, c.Name, c.Score, c.MaxScore, status, c.Detail)
	}
	b.WriteString(strings.Repeat("-", 90) + "\n")
	fmt.Fprintf(&b, "%3s %-25s %6.1f %5s\n", "", "OVERALL", result.OverallScore, "100")

	fixes := RankedFixes(result)
	if len(fixes) == 0 {
		b.WriteString("\nNo fixes needed, all criteria passed.\n")
		return b.String()
	}

	b.WriteString("\nFix recommendations (by priority):\n")
	for i, c := range fixes {
		fmt.Fprintf(&b, "  %d. [%s] %s (%.0f/%.0f): %s\n", i+1, c.Severity, c.Name, c.Score, c.MaxScore, c.Detail)
		fmt.Fprintf(&b, "     -> %s\n", c.Fix)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
