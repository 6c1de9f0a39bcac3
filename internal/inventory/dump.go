package inventory

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
)

// maxDumpPages caps how many legacy pages one dump contributes. The old
// wiki holds thousands of stale pages; the first five hundred main
// namespace rows cover everything worth triaging.
const maxDumpPages = 500

// rePageRow matches the leading (id, namespace, 'title', ...) fields of a
// page table tuple inside an INSERT statement.
var rePageRow = regexp.MustCompile(`\((\d+),(\d+),'([^']*)',`)

// ScanDump extracts main-namespace page rows from a MediaWiki SQL dump.
// Each page becomes a Legacy: target with a synthetic mediawiki:page_id
// source path; word and link counts stay zero because the dump's text
// table is not parsed. A missing dump degrades to no records.
func ScanDump(ctx context.Context, dumpPath string, logger *slog.Logger) ([]ledger.Record, error) {
	if !sourceExists(dumpPath, logger) {
		return nil, nil
	}
	f, err := os.Open(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("inventory: open dump %s: %w", dumpPath, err)
	}
	defer f.Close()

	var out []ledger.Record
	sc := bufio.NewScanner(f)
	// mysqldump packs whole tables into single INSERT lines.
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := sc.Text()
		if !strings.Contains(line, "INSERT INTO `page`") {
			continue
		}
		for _, m := range rePageRow.FindAllStringSubmatch(line, -1) {
			if len(out) >= maxDumpPages {
				break
			}
			pageID, namespace, rawTitle := m[1], m[2], m[3]
			if namespace != "0" || rawTitle == "" || strings.HasPrefix(rawTitle, "MediaWiki:") {
				continue
			}
			title := strings.ReplaceAll(rawTitle, "_", " ")
			out = append(out, ledger.Record{
				SourcePath: "mediawiki:page_id=" + pageID,
				SourceType: SourceMediaWiki,
				Title:      title,
				TargetPage: "Legacy:" + strings.ReplaceAll(title, " ", "_"),
				Priority:   PriorityLow,
				Status:     ledger.StatusNotStarted,
				Notes:      "Legacy wiki content - needs version classification",
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("inventory: scan dump %s: %w", dumpPath, err)
	}
	logger.Info("inventory: parsed mediawiki dump", slog.String("path", dumpPath), slog.Int("pages", len(out)))
	return out, nil
}
