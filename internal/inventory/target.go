package inventory

import (
	"path"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
)

// Priority buckets, highest first. The rank drives ledger sort order.
const (
	PriorityCritical = "P0-Critical"
	PriorityHigh     = "P1-High"
	PriorityMedium   = "P2-Medium"
	PriorityLow      = "P3-Low"
)

var priorityOrder = []string{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// sectionRules map source directory names to wiki section prefixes. The
// first rule whose directory appears as a path component wins.
var sectionRules = []struct {
	dirs    []string
	section string
}{
	{[]string{"getting-started", "Installing and Configuring DreamFactory"}, "Getting_Started/"},
	{[]string{"Security", "security"}, "Security/"},
	{[]string{"api-generation"}, "API_Generation/"},
	{[]string{"system-settings"}, "System_Settings/"},
	{[]string{"admin-settings"}, "Admin_Settings/"},
	{[]string{"AI"}, "AI_Services/"},
	{[]string{"Appendices"}, "Reference/"},
}

// TargetPage derives the destination wiki page for a source path. The file
// stem becomes a Title_Cased page name; index stems take the parent
// directory's name instead; section directories on the path prepend their
// wiki section.
func TargetPage(sourcePath string) string {
	parts := strings.Split(sourcePath, "/")
	base := parts[len(parts)-1]
	stem := strings.TrimSuffix(base, path.Ext(base))
	switch stem {
	case "_index", "index", "introduction":
		if len(parts) >= 2 {
			stem = parts[len(parts)-2]
		}
	}
	name := ledger.FallbackTitle(stem)

	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		seen[p] = true
	}
	for _, rule := range sectionRules {
		for _, dir := range rule.dirs {
			if seen[dir] {
				return rule.section + name
			}
		}
	}
	return name
}

// Priority ranks a source path by migration urgency. Rules match anywhere
// in the lowercased path, so a docker page deep in a tree still ranks
// critical.
func Priority(sourcePath string) string {
	lower := strings.ToLower(sourcePath)
	switch {
	case strings.Contains(lower, "introduction") || strings.Contains(lower, "docker"):
		return PriorityCritical
	case strings.Contains(lower, "getting-started") || strings.Contains(lower, "security"):
		return PriorityHigh
	case strings.Contains(lower, "api-generation") || strings.Contains(lower, "system-settings"):
		return PriorityMedium
	}
	return PriorityLow
}
