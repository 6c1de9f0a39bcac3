package inventory

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Sort orders records by priority rank, then source type. Unknown
// priorities sort last. The order is stable so records within a bucket
// keep their scan order.
func Sort(records []ledger.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := priorityRank(records[i].Priority), priorityRank(records[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return records[i].SourceType < records[j].SourceType
	})
}

func priorityRank(p string) int {
	for i, known := range priorityOrder {
		if p == known {
			return i
		}
	}
	return len(priorityOrder)
}

// FormatBreakdown renders the per-source and per-priority counts printed
// after a scan.
func FormatBreakdown(records []ledger.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total items: %d\n", len(records))
	for _, st := range []string{SourceDocusaurus, SourceHugo, SourceMediaWiki} {
		n := 0
		for _, rec := range records {
			if rec.SourceType == st {
				n++
			}
		}
		fmt.Fprintf(&b, "  %s: %d\n", st, n)
	}
	b.WriteString("\nPriority breakdown:\n")
	for _, p := range priorityOrder {
		n := 0
		for _, rec := range records {
			if rec.Priority == p {
				n++
			}
		}
		fmt.Fprintf(&b, "  %s: %d\n", p, n)
	}
	return b.String()
}

// Save writes records to path as inventory CSV through an atomic rename,
// creating parent directories as needed.
func Save(path string, records []ledger.Record) error {
	var buf bytes.Buffer
	if err := ledger.Write(&buf, records); err != nil {
		return fmt.Errorf("inventory: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("inventory: mkdir: %w", err)
		}
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("inventory: save %s: %w", path, err)
	}
	return nil
}
