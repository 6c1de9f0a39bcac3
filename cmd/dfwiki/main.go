package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/dreamfactorysoftware/df-wiki/internal"
	"github.com/dreamfactorysoftware/df-wiki/internal/apperr"
	"github.com/dreamfactorysoftware/df-wiki/internal/audit"
	"github.com/dreamfactorysoftware/df-wiki/internal/batch"
	"github.com/dreamfactorysoftware/df-wiki/internal/history"
	"github.com/dreamfactorysoftware/df-wiki/internal/inventory"
	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/mcpserver"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/redirect"
	"github.com/dreamfactorysoftware/df-wiki/internal/rewrite"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
	"github.com/dreamfactorysoftware/df-wiki/internal/validate"
	pkgconfig "github.com/dreamfactorysoftware/df-wiki/pkg/config"
)

// loadConfig reads the config file named by the global flag. A missing
// file falls back to defaults so the tool works in a fresh checkout.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the text logger used by batch commands. Serve mode
// builds its own JSON logger.
func newLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// engines are the shared per-command dependencies: docs storage, the
// inventory, the link index and the scorer built from them.
type engines struct {
	store  *storage.FS
	led    *ledger.Ledger
	index  *ledger.LinkIndex
	scorer *score.Scorer

	ledgerMissing bool
}

// buildEngines loads the docs tree and inventory. A missing ledger
// degrades to fallback-only resolution with a warning.
func buildEngines(cfg *internal.Config, logger *slog.Logger) (*engines, error) {
	store, err := storage.NewFS(cfg.Docs.Path)
	if err != nil {
		return nil, fmt.Errorf("open docs root: %w", err)
	}
	led, err := ledger.Load(cfg.Ledger.Path)
	ledgerMissing := false
	if err != nil {
		if !errors.Is(err, apperr.ErrLedgerMissing) {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
		logger.Warn("ledger not found, link resolution uses fallbacks only",
			slog.String("path", cfg.Ledger.Path))
		led = ledger.Empty()
		ledgerMissing = true
	}
	ix := ledger.NewLinkIndex(led, cfg.Ledger.SourceRoots)
	return &engines{
		store: store, led: led, index: ix, scorer: score.New(ix, led),
		ledgerMissing: ledgerMissing,
	}, nil
}

func runInventory(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	var records []ledger.Record
	if root := cmd.String("docusaurus"); root != "" {
		recs, err := inventory.ScanDocusaurus(ctx, root, cmd.String("docusaurus-prefix"), logger)
		if err != nil {
			return fmt.Errorf("scan docusaurus: %w", err)
		}
		records = append(records, recs...)
	}
	if root := cmd.String("hugo"); root != "" {
		recs, err := inventory.ScanHugo(ctx, root, cmd.String("hugo-prefix"), logger)
		if err != nil {
			return fmt.Errorf("scan hugo: %w", err)
		}
		records = append(records, recs...)
	}
	if dump := cmd.String("dump"); dump != "" {
		recs, err := inventory.ScanDump(ctx, dump, logger)
		if err != nil {
			return fmt.Errorf("scan dump: %w", err)
		}
		records = append(records, recs...)
	}
	if len(records) == 0 {
		return fmt.Errorf("no sources scanned; pass --docusaurus, --hugo or --dump")
	}

	inventory.Sort(records)
	out := cmd.String("out")
	if out == "" {
		out = cfg.Ledger.Path
	}
	if err := inventory.Save(out, records); err != nil {
		return err
	}
	fmt.Print(inventory.FormatBreakdown(records))
	fmt.Printf("\nInventory written to %s (%d records)\n", out, len(records))
	return nil
}

func runPostprocess(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	eng, err := buildEngines(cfg, logger)
	if err != nil {
		return err
	}

	rw := rewrite.New(eng.index, eng.led)
	drafts := ledger.NewDraftFilter(eng.led, eng.index)
	runner := batch.New(eng.store, eng.scorer, rw, drafts, logger, cfg.Score.Workers)

	// An empty --out selects RewriteTree's in-place mode.
	run, err := runner.RewriteTree(ctx, cmd.String("out"))
	if err != nil {
		return err
	}

	fmt.Printf("Rewrote %d files (%d unchanged, %d drafts skipped)\n",
		len(run.Changed), run.Unchanged, run.SkippedDrafts)
	for _, f := range run.Failures {
		fmt.Printf("  FAILED %s: %v\n", f.Path, f.Err)
	}
	if len(run.Failures) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func runScore(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	eng, err := buildEngines(cfg, logger)
	if err != nil {
		return err
	}

	// Single-page mode prints the detailed rubric report.
	if page := cmd.String("page"); page != "" {
		data, err := eng.store.Read(page)
		if err != nil {
			return fmt.Errorf("read %s: %w", page, err)
		}
		result := eng.scorer.Score(models.NewDocument(page, string(data)))
		fmt.Print(score.FormatTextReport(result))
		return nil
	}

	drafts := ledger.NewDraftFilter(eng.led, eng.index)
	runner := batch.New(eng.store, eng.scorer, nil, drafts, logger, cfg.Score.Workers)
	run, err := runner.ScoreTree(ctx)
	if err != nil {
		return err
	}

	threshold := cfg.Score.Threshold
	if cmd.IsSet("threshold") {
		threshold = int(cmd.Int("threshold"))
	}
	stats := batch.Compute(run, threshold)
	stats.LedgerMissing = eng.ledgerMissing
	fmt.Print(batch.FormatSummary(stats))

	if csvPath := cmd.String("csv"); csvPath != "" {
		if err := batch.SaveCSV(csvPath, run.Scores); err != nil {
			return err
		}
		fmt.Printf("Scores written to %s\n", csvPath)
	}

	if !cmd.Bool("no-history") {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer db.Close()
		runID, err := db.RecordRun(eng.store.Root(), stats, run.Scores)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		logger.Info("run recorded", slog.Int64("run_id", runID))
	}

	if code := stats.Gate(); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func runAudit(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	store, err := storage.NewFS(cfg.Docs.Path)
	if err != nil {
		return fmt.Errorf("open docs root: %w", err)
	}

	rep, err := audit.New(store, logger).AuditTree(ctx)
	if err != nil {
		return err
	}
	fmt.Print(audit.FormatReport(rep))

	if csvPath := cmd.String("csv"); csvPath != "" {
		if err := audit.SaveCSV(csvPath, rep.Findings); err != nil {
			return err
		}
	}
	if jsonPath := cmd.String("json"); jsonPath != "" {
		if err := audit.SaveJSON(jsonPath, rep); err != nil {
			return err
		}
	}
	return nil
}

func runRedirects(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	entries, err := redirect.LoadMap(cmd.String("map"))
	if err != nil {
		return err
	}
	gen := redirect.New(cmd.String("out"), cmd.String("page-map"), logger)
	sum, err := gen.Generate(entries, cmd.Bool("dry-run"))
	if err != nil {
		return err
	}
	fmt.Print(redirect.FormatSummary(sum, cmd.String("out")))
	return nil
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	eng, err := buildEngines(cfg, logger)
	if err != nil {
		return err
	}

	rep, err := validate.New(eng.store, eng.led, logger).ValidateTree(ctx)
	if err != nil {
		return err
	}
	fmt.Print(validate.FormatSummary(rep))

	if csvPath := cmd.String("csv"); csvPath != "" {
		if err := validate.SaveCSV(csvPath, rep.Issues); err != nil {
			return err
		}
		fmt.Printf("Issues written to %s\n", csvPath)
	}

	if code := rep.Gate(); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// MCP speaks JSON-RPC on stdout, so logs go to stderr only.
	logger := newLogger(cfg)
	eng, err := buildEngines(cfg, logger)
	if err != nil {
		return err
	}
	srv := mcpserver.New(eng.store, eng.scorer, eng.index, eng.led)
	return srv.ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "dfwiki",
		Usage: "Documentation migration toolkit: inventory, conversion post-processing, quality scoring and serving",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("DFWIKI_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "inventory",
				Usage:  "Scan source docs trees and build the migration inventory CSV",
				Action: runInventory,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "docusaurus", Usage: "Docusaurus docs root to scan"},
					&cli.StringFlag{Name: "docusaurus-prefix", Usage: "Source path prefix for docusaurus records", Value: "df-docs/df-docs/docs"},
					&cli.StringFlag{Name: "hugo", Usage: "Hugo content root to scan"},
					&cli.StringFlag{Name: "hugo-prefix", Usage: "Source path prefix for hugo records", Value: "guide/dreamfactory-book-v2/content/en/docs"},
					&cli.StringFlag{Name: "dump", Usage: "MediaWiki SQL dump with existing pages"},
					&cli.StringFlag{Name: "out", Usage: "Inventory CSV output path (defaults to ledger.path)"},
				},
			},
			{
				Name:   "postprocess",
				Usage:  "Run the markup rewrite pipeline over the docs tree",
				Action: runPostprocess,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Output root (defaults to in-place)"},
				},
			},
			{
				Name:   "score",
				Usage:  "Score every page against the content rubric",
				Action: runScore,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Usage: "Score a single page and print the full report"},
					&cli.StringFlag{Name: "csv", Usage: "Write per-page scores to this CSV"},
					&cli.IntFlag{Name: "threshold", Usage: "Minimum passing overall score"},
					&cli.BoolFlag{Name: "no-history", Usage: "Skip recording the run in the history database"},
				},
			},
			{
				Name:   "audit",
				Usage:  "Audit pages for outdated product positioning",
				Action: runAudit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "csv", Usage: "Write findings to this CSV"},
					&cli.StringFlag{Name: "json", Usage: "Write the full report to this JSON file"},
				},
			},
			{
				Name:   "redirects",
				Usage:  "Generate redirect/hub/stub pages from a mapping JSON",
				Action: runRedirects,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "map", Usage: "Mapping JSON path", Required: true},
					&cli.StringFlag{Name: "out", Usage: "Output directory for generated .wiki files", Value: "redirects"},
					&cli.StringFlag{Name: "page-map", Usage: "Page map JSON to update", Value: "page_map.json"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Report what would be generated without writing"},
				},
			},
			{
				Name:   "validate",
				Usage:  "Run post-migration quality checks over the docs tree",
				Action: runValidate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "csv", Usage: "Write issues to this CSV"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the scores API with live rescoring",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve scoring and resolution tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
