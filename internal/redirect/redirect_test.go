package redirect

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testGenerator(t *testing.T) (*Generator, string, string) {
	t.Helper()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "redirects")
	pageMap := filepath.Join(dir, "page_map.json")
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(outDir, pageMap, logger), outDir, pageMap
}

func TestGenerate_Redirect(t *testing.T) {
	g, outDir, _ := testGenerator(t)

	sum, err := g.Generate([]Entry{
		{OldPath: "DreamFactory/Installation", Strategy: StrategyRedirect, Rank: 1, NewTarget: "Installation"},
	}, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sum.Counts[StrategyRedirect] != 1 {
		t.Errorf("redirect count = %d, want 1", sum.Counts[StrategyRedirect])
	}

	data, err := os.ReadFile(filepath.Join(outDir, "DreamFactory_Installation.wiki"))
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	if got := string(data); got != "#REDIRECT [[Installation]]\n" {
		t.Errorf("content = %q, want redirect markup", got)
	}
}

func TestGenerate_HubAndStub(t *testing.T) {
	g, outDir, _ := testGenerator(t)

	entries := []Entry{
		{OldPath: "Old/Security", Strategy: StrategyHub, Rank: 2, HubLinks: []Link{
			{Target: "Security/API_Keys", Label: "API Keys"},
			{Target: "Security/RBAC", Label: "Role-Based Access"},
		}},
		{OldPath: "Old/Scheduler", Strategy: StrategyStub, Rank: 3,
			StubTitle: "Task Scheduler", StubContent: "Scheduling docs are being rewritten.",
			StubLinks: []Link{{Target: "System_Settings/Scheduler", Label: "Scheduler"}}},
	}
	if _, err := g.Generate(entries, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	hub, _ := os.ReadFile(filepath.Join(outDir, "Old_Security.wiki"))
	if !strings.Contains(string(hub), "= Security =") {
		t.Errorf("hub missing title heading: %q", hub)
	}
	if !strings.Contains(string(hub), "* [[Security/API_Keys|API Keys]]") {
		t.Errorf("hub missing link list: %q", hub)
	}
	if !strings.Contains(string(hub), "[[Category:Navigation]]") {
		t.Errorf("hub missing navigation category: %q", hub)
	}

	stub, _ := os.ReadFile(filepath.Join(outDir, "Old_Scheduler.wiki"))
	if !strings.Contains(string(stub), "= Task Scheduler =") {
		t.Errorf("stub missing custom title: %q", stub)
	}
	if !strings.Contains(string(stub), "== Related Pages ==") {
		t.Errorf("stub missing related pages section: %q", stub)
	}
}

func TestGenerate_UnknownStrategySkipped(t *testing.T) {
	g, outDir, _ := testGenerator(t)

	sum, err := g.Generate([]Entry{
		{OldPath: "Old/Weird", Strategy: "teleport", Rank: 9},
		{OldPath: "Old/Fine", Strategy: StrategyNoAction, Rank: 10},
	}, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sum.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", sum.Skipped)
	}
	if sum.Counts[StrategyNoAction] != 1 {
		t.Errorf("no-action count = %d, want 1", sum.Counts[StrategyNoAction])
	}
	if len(sum.Generated) != 0 {
		t.Errorf("generated = %d files, want 0", len(sum.Generated))
	}
	if _, err := os.Stat(filepath.Join(outDir, "Old_Weird.wiki")); !os.IsNotExist(err) {
		t.Error("unknown strategy produced a file")
	}
}

func TestGenerate_UpdatesPageMap(t *testing.T) {
	g, _, pageMapPath := testGenerator(t)

	// Pre-existing entries survive the update.
	_ = os.WriteFile(pageMapPath, []byte(`{"existing.wiki": "Existing"}`), 0o644)

	if _, err := g.Generate([]Entry{
		{OldPath: "Old/Path", Strategy: StrategyRedirect, Rank: 1, NewTarget: "New/Path"},
	}, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(pageMapPath)
	if err != nil {
		t.Fatalf("read page map: %v", err)
	}
	var pm map[string]string
	if err := json.Unmarshal(data, &pm); err != nil {
		t.Fatalf("parse page map: %v", err)
	}
	if pm["redirects/Old_Path.wiki"] != "Old/Path" {
		t.Errorf("page map entry = %q, want Old/Path", pm["redirects/Old_Path.wiki"])
	}
	if pm["existing.wiki"] != "Existing" {
		t.Error("pre-existing page map entry lost")
	}
}

func TestGenerate_DryRunWritesNothing(t *testing.T) {
	g, outDir, pageMapPath := testGenerator(t)

	sum, err := g.Generate([]Entry{
		{OldPath: "Old/Dry", Strategy: StrategyRedirect, Rank: 1, NewTarget: "Dry"},
	}, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(sum.Generated) != 1 {
		t.Errorf("dry run generated = %d, want 1 reported", len(sum.Generated))
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("dry run created the output directory")
	}
	if _, err := os.Stat(pageMapPath); !os.IsNotExist(err) {
		t.Error("dry run wrote the page map")
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename("DreamFactory/Admin/Settings")
	if got != "DreamFactory_Admin_Settings.wiki" {
		t.Errorf("SanitizeFilename = %q, want DreamFactory_Admin_Settings.wiki", got)
	}
}

func TestLoadMap_Missing(t *testing.T) {
	if _, err := LoadMap(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing map file")
	}
}
