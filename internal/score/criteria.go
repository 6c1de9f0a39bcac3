package score

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
)

const (
	wordCountTarget = 500
	versionHitCost  = 4.0
	keywordTarget   = 3
)

func scoreWordCount(wordCount int) CriterionResult {
	switch {
	case wordCount >= wordCountTarget:
		return CriterionResult{
			Name:     NameWordCount,
			Score:    weightWordCount,
			MaxScore: weightWordCount,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   fmt.Sprintf("%d words (meets %d-word minimum)", wordCount, wordCountTarget),
		}
	case wordCount < stubWordCount:
		return CriterionResult{
			Name:     NameWordCount,
			Score:    round1(weightWordCount * float64(wordCount) / wordCountTarget),
			MaxScore: weightWordCount,
			Severity: SeverityCritical,
			Detail:   fmt.Sprintf("%d words, stub (< %d words)", wordCount, stubWordCount),
			Fix: fmt.Sprintf("Expand content to at least %d words (%d more needed) or merge into a parent page",
				wordCountTarget, wordCountTarget-wordCount),
		}
	default:
		return CriterionResult{
			Name:     NameWordCount,
			Score:    round1(weightWordCount * float64(wordCount) / wordCountTarget),
			MaxScore: weightWordCount,
			Severity: SeverityWarning,
			Detail:   fmt.Sprintf("%d words, needs %d more for minimum", wordCount, wordCountTarget-wordCount),
			Fix:      fmt.Sprintf("Add %d more words of substantive content", wordCountTarget-wordCount),
		}
	}
}

type versionIssue struct {
	line  int
	match string
	fix   string
}

func scoreVersionCurrency(content string) CriterionResult {
	var issues []versionIssue
	for i, line := range strings.Split(content, "\n") {
		if isUpgradeContext(line) {
			continue
		}
		for _, p := range outdatedVersionPatterns {
			if m := p.re.FindString(line); m != "" {
				issues = append(issues, versionIssue{i + 1, m, p.fix})
			}
		}
	}

	if len(issues) == 0 {
		return CriterionResult{
			Name:     NameVersionCurrency,
			Score:    weightVersionCurrency,
			MaxScore: weightVersionCurrency,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   "No outdated version references found",
		}
	}

	penalty := math.Min(float64(len(issues))*versionHitCost, weightVersionCurrency)
	parts := make([]string, len(issues))
	lines := make([]int, len(issues))
	for i, iss := range issues {
		parts[i] = fmt.Sprintf("Line %d: %q -> %s", iss.line, iss.match, iss.fix)
		lines[i] = iss.line
	}
	return CriterionResult{
		Name:     NameVersionCurrency,
		Score:    weightVersionCurrency - penalty,
		MaxScore: weightVersionCurrency,
		Severity: SeverityCritical,
		Detail:   fmt.Sprintf("%d outdated reference(s) found", len(issues)),
		Fix:      strings.Join(parts, "; "),
		Lines:    lines,
	}
}

func scoreCrosslinks(n int, isHub bool) CriterionResult {
	if isHub {
		if n >= ledger.HubLinkThreshold {
			return CriterionResult{
				Name:     NameCrosslinks,
				Score:    weightCrosslinks,
				MaxScore: weightCrosslinks,
				Passed:   true,
				Severity: SeverityInfo,
				Detail:   fmt.Sprintf("%d internal links (hub page; threshold: %d)", n, ledger.HubLinkThreshold),
			}
		}
		return CriterionResult{
			Name:     NameCrosslinks,
			Score:    round1(weightCrosslinks * math.Min(float64(n)/ledger.HubLinkThreshold, 1)),
			MaxScore: weightCrosslinks,
			Severity: SeverityWarning,
			Detail:   fmt.Sprintf("%d internal links (hub page needs %d+)", n, ledger.HubLinkThreshold),
			Fix:      fmt.Sprintf("Add %d more internal links to related pages", ledger.HubLinkThreshold-n),
		}
	}

	switch {
	case n >= ledger.LeafLinkThreshold:
		return CriterionResult{
			Name:     NameCrosslinks,
			Score:    weightCrosslinks,
			MaxScore: weightCrosslinks,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   fmt.Sprintf("%d internal links (leaf page; threshold: %d)", n, ledger.LeafLinkThreshold),
		}
	case n == 0:
		return CriterionResult{
			Name:     NameCrosslinks,
			MaxScore: weightCrosslinks,
			Severity: SeverityCritical,
			Detail:   "No internal links, orphan page",
			Fix:      "Add link to parent hub page + at least 3 related pages",
		}
	default:
		return CriterionResult{
			Name:     NameCrosslinks,
			Score:    round1(weightCrosslinks * float64(n) / ledger.LeafLinkThreshold),
			MaxScore: weightCrosslinks,
			Severity: SeverityWarning,
			Detail:   fmt.Sprintf("%d internal links (leaf page needs %d+)", n, ledger.LeafLinkThreshold),
			Fix:      fmt.Sprintf("Add %d more internal links (parent + related pages)", ledger.LeafLinkThreshold-n),
		}
	}
}

func (s *Scorer) scoreURLStructure(path string) CriterionResult {
	target, ok := s.index.Resolve(path)
	switch {
	case ok && s.ledger.HasTarget(target):
		if strings.Contains(target, "/") {
			return CriterionResult{
				Name:     NameURLStructure,
				Score:    weightURLStructure,
				MaxScore: weightURLStructure,
				Passed:   true,
				Severity: SeverityInfo,
				Detail:   "Semantic wiki path: " + target,
			}
		}
		return CriterionResult{
			Name:     NameURLStructure,
			Score:    round1(weightURLStructure * 0.7),
			MaxScore: weightURLStructure,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   "Wiki path exists but flat: " + target,
			Fix:      "Consider a hierarchical path (e.g., Category/Page)",
		}
	case ok:
		return CriterionResult{
			Name:     NameURLStructure,
			Score:    round1(weightURLStructure * 0.5),
			MaxScore: weightURLStructure,
			Severity: SeverityWarning,
			Detail:   fmt.Sprintf("Mapped target %q not in ledger targets", target),
			Fix:      "Verify target_wiki_page in the inventory CSV",
		}
	default:
		return CriterionResult{
			Name:     NameURLStructure,
			MaxScore: weightURLStructure,
			Severity: SeverityWarning,
			Detail:   "No ledger mapping found for this file",
			Fix:      "Add an inventory row with a semantic target_wiki_page",
		}
	}
}

var (
	reJSONLD    = regexp.MustCompile(`(?i)<script\s+type=["']application/ld\+json["']`)
	reSchemaOrg = regexp.MustCompile(`(?i)schema\.org`)
	reItemType  = regexp.MustCompile(`(?i)itemtype=["']https?://schema\.org`)
)

func scoreStructuredData(content string) CriterionResult {
	switch {
	case reJSONLD.MatchString(content):
		return CriterionResult{
			Name:     NameStructuredData,
			Score:    weightStructuredData,
			MaxScore: weightStructuredData,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   "JSON-LD block found",
		}
	case reSchemaOrg.MatchString(content) || reItemType.MatchString(content):
		return CriterionResult{
			Name:     NameStructuredData,
			Score:    round1(weightStructuredData * 0.5),
			MaxScore: weightStructuredData,
			Severity: SeverityInfo,
			Detail:   "Schema.org reference found but no JSON-LD block",
			Fix:      `Add a <script type="application/ld+json"> block with TechArticle schema`,
		}
	default:
		// Non-blocking: templates inject structured data after upload.
		return CriterionResult{
			Name:     NameStructuredData,
			MaxScore: weightStructuredData,
			Severity: SeverityInfo,
			Detail:   "No structured data found (expected pre-upload; added via templates post-upload)",
			Fix:      "Structured data (JSON-LD: TechArticle, BreadcrumbList, HowTo) is injected via templates after upload; no action needed in source files",
		}
	}
}

var reSourceTag = regexp.MustCompile(`<source\b`)

func scoreCodeExamples(content string, format models.Format) CriterionResult {
	count := 0
	if format == models.FormatWiki {
		count += strings.Count(content, "<syntaxhighlight")
		count += len(reSourceTag.FindAllString(content, -1))
		count += strings.Count(content, "<code>")
		count += strings.Count(content, "<pre>")
	} else {
		count = strings.Count(content, "```") / 2
		if count == 0 {
			count = indentedCodeBlocks(content)
		}
	}

	if count >= 1 {
		return CriterionResult{
			Name:     NameCodeExamples,
			Score:    weightCodeExamples,
			MaxScore: weightCodeExamples,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   fmt.Sprintf("%d code block(s) found", count),
		}
	}
	return CriterionResult{
		Name:     NameCodeExamples,
		MaxScore: weightCodeExamples,
		Severity: SeverityWarning,
		Detail:   "No code examples found",
		Fix:      "Add at least one code example (API call, config snippet, etc.)",
	}
}

// indentedCodeBlocks counts 4-space-indented runs that follow a blank
// line, the pre-fence markdown convention.
func indentedCodeBlocks(content string) int {
	lines := strings.Split(content, "\n")
	count := 0
	inCode := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "    ") && i > 0 && strings.TrimSpace(lines[i-1]) == "":
			if !inCode {
				count++
				inCode = true
			}
		case !strings.HasPrefix(line, "    "):
			inCode = false
		}
	}
	return count
}

func scoreCategories(content string, format models.Format, fm parser.FrontMatter) CriterionResult {
	if format == models.FormatWiki {
		cats := parser.CategoryTags(content)
		if len(cats) == 0 {
			return CriterionResult{
				Name:     NameCategories,
				MaxScore: weightCategories,
				Severity: SeverityWarning,
				Detail:   "No [[Category:]] tags found",
				Fix:      "Add at least one [[Category:TopicName]] tag",
			}
		}
		preview := cats
		if len(preview) > 5 {
			preview = preview[:5]
		}
		return CriterionResult{
			Name:     NameCategories,
			Score:    weightCategories,
			MaxScore: weightCategories,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   fmt.Sprintf("%d category tag(s): %s", len(cats), strings.Join(preview, ", ")),
		}
	}

	n := len(fm.Keywords)
	switch {
	case n >= keywordTarget:
		return CriterionResult{
			Name:     NameCategories,
			Score:    weightCategories,
			MaxScore: weightCategories,
			Passed:   true,
			Severity: SeverityInfo,
			Detail:   fmt.Sprintf("%d frontmatter keyword(s)", n),
		}
	case n >= 1:
		return CriterionResult{
			Name:     NameCategories,
			Score:    round1(weightCategories * float64(n) / keywordTarget),
			MaxScore: weightCategories,
			Passed:   true,
			Severity: SeverityWarning,
			Detail:   fmt.Sprintf("%d frontmatter keyword(s)", n),
			Fix:      fmt.Sprintf("Add %d more keywords for better categorization", keywordTarget-n),
		}
	default:
		return CriterionResult{
			Name:     NameCategories,
			MaxScore: weightCategories,
			Severity: SeverityWarning,
			Detail:   "No frontmatter keywords found",
			Fix:      "Add keywords: [keyword1, keyword2, ...] to YAML frontmatter",
		}
	}
}
