// Package batch drives whole-tree scoring and rewriting: walk the docs
// root, apply an engine per file, continue past per-file failures, and
// aggregate the outcome.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
	"github.com/dreamfactorysoftware/df-wiki/internal/rewrite"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// aiReferenceName is the per-directory AI companion file, never scored.
const aiReferenceName = "_ai-reference.md"

// Runner applies the scorer or the rewriter to every document under the
// docs root.
type Runner struct {
	store    *storage.FS
	scorer   *score.Scorer
	rewriter *rewrite.Rewriter
	drafts   *ledger.DraftFilter
	log      *slog.Logger
	workers  int
}

// New builds a Runner. drafts may be nil, which disables draft skipping;
// workers below 1 run the batch serially.
func New(store *storage.FS, sc *score.Scorer, rw *rewrite.Rewriter, drafts *ledger.DraftFilter, logger *slog.Logger, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{store: store, scorer: sc, rewriter: rw, drafts: drafts, log: logger, workers: workers}
}

// FileScore pairs one rubric evaluation with the checksum of the content
// it was computed from, so history recording can skip unchanged pages.
type FileScore struct {
	score.ContentScore
	Checksum string `json:"checksum"`
}

// Failure records one document the run could not process.
type Failure struct {
	Path string
	Err  error
}

// ScoreRun is the outcome of a whole-tree scoring pass. Scores keep walk
// order: markdown first, then wiki, each sorted by path.
type ScoreRun struct {
	Scores        []FileScore
	Failures      []Failure
	SkippedDrafts int
}

// RewriteRun is the outcome of a whole-tree rewrite pass.
type RewriteRun struct {
	Changed       []string
	Unchanged     int
	Failures      []Failure
	SkippedDrafts int
}

// walk lists the documents to process in report order. Hidden path
// segments, _ai-reference.md companions and ledgered empty drafts are
// excluded.
func (r *Runner) walk() ([]models.FileMeta, int, error) {
	metas, err := r.store.List("")
	if err != nil {
		return nil, 0, err
	}

	rootSlash := filepath.ToSlash(r.store.Root())
	var md, wiki []models.FileMeta
	skipped := 0
	for _, m := range metas {
		rel := filepath.ToSlash(m.Path)
		if hasHiddenSegment(rel) || path.Base(rel) == aiReferenceName {
			continue
		}
		if r.drafts != nil && r.drafts.Match(path.Join(rootSlash, rel)) {
			skipped++
			continue
		}
		if m.Format == models.FormatWiki {
			wiki = append(wiki, m)
		} else {
			md = append(md, m)
		}
	}
	sort.Slice(md, func(i, j int) bool { return md[i].Path < md[j].Path })
	sort.Slice(wiki, func(i, j int) bool { return wiki[i].Path < wiki[j].Path })
	return append(md, wiki...), skipped, nil
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

// ScoreTree scores every document under the docs root. Per-file failures
// are recorded and the run continues; only walk errors and context
// cancellation abort the whole run.
func (r *Runner) ScoreTree(ctx context.Context) (*ScoreRun, error) {
	files, skipped, err := r.walk()
	if err != nil {
		return nil, fmt.Errorf("batch: walk: %w", err)
	}

	results := make([]FileScore, len(files))
	errs := make([]error, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, meta := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.store.Read(meta.Path)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = FileScore{
				ContentScore: r.scorer.Score(models.NewDocument(meta.Path, string(data))),
				Checksum:     meta.Checksum,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: score tree: %w", err)
	}

	run := &ScoreRun{SkippedDrafts: skipped}
	for i, meta := range files {
		if errs[i] != nil {
			r.log.Warn("batch: score failed", slog.String("path", meta.Path), slog.String("error", errs[i].Error()))
			run.Failures = append(run.Failures, Failure{Path: meta.Path, Err: errs[i]})
			continue
		}
		run.Scores = append(run.Scores, results[i])
	}
	if skipped > 0 {
		r.log.Info("batch: skipped drafts", slog.Int("count", skipped))
	}
	return run, nil
}

// RewriteTree applies the full stage pipeline to every document under the
// docs root. With outRoot empty changed files are rewritten in place;
// otherwise every rewritten document lands under outRoot at its relative
// path, markdown swapping its extension for .wiki.
func (r *Runner) RewriteTree(ctx context.Context, outRoot string) (*RewriteRun, error) {
	files, skipped, err := r.walk()
	if err != nil {
		return nil, fmt.Errorf("batch: walk: %w", err)
	}

	var dest *storage.FS
	if outRoot != "" {
		dest, err = storage.EnsureFS(outRoot)
		if err != nil {
			return nil, fmt.Errorf("batch: output root: %w", err)
		}
	}

	type outcome struct {
		changed bool
		err     error
	}
	outcomes := make([]outcome, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, meta := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed, err := r.rewriteFile(meta, dest)
			outcomes[i] = outcome{changed: changed, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: rewrite tree: %w", err)
	}

	run := &RewriteRun{SkippedDrafts: skipped}
	for i, meta := range files {
		switch {
		case outcomes[i].err != nil:
			r.log.Warn("batch: rewrite failed", slog.String("path", meta.Path), slog.String("error", outcomes[i].err.Error()))
			run.Failures = append(run.Failures, Failure{Path: meta.Path, Err: outcomes[i].err})
		case outcomes[i].changed:
			run.Changed = append(run.Changed, meta.Path)
		default:
			run.Unchanged++
		}
	}
	return run, nil
}

// rewriteFile runs the pipeline over one document and writes the result.
// The returned flag reports whether the text differs from the input.
func (r *Runner) rewriteFile(meta models.FileMeta, dest *storage.FS) (bool, error) {
	data, err := r.store.Read(meta.Path)
	if err != nil {
		return false, err
	}

	in := rewrite.Input{SourcePath: meta.Path}
	body := string(data)
	if meta.Format == models.FormatMarkdown {
		in.FrontMatter, body = parser.ParseFrontMatter(data)
	}

	out := r.rewriter.Apply(in, body)
	changed := out != string(data)

	switch {
	case dest != nil:
		rel := meta.Path
		if meta.Format == models.FormatMarkdown {
			rel = strings.TrimSuffix(rel, ".md") + ".wiki"
		}
		if err := dest.Write(rel, []byte(out)); err != nil {
			return changed, err
		}
	case changed:
		if err := r.store.Write(meta.Path, []byte(out)); err != nil {
			return changed, err
		}
	}
	return changed, nil
}
