// Package orchestrator is the top-level pipeline (SPEC_FULL.md §4.13):
// scan -> per-repo analysis -> build hierarchy -> aggregate. Grounded on the
// teacher's pkg/analyzer.Pipeline.Analyze, whose linear
// discover-analyze-aggregate-summarize shape is kept, generalized to run
// per-file analysis concurrently (scanner.Dispatch) and to cover multiple
// repository roots instead of one.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/metricmancer/metricmancer/pkg/aggregator"
	"github.com/metricmancer/metricmancer/pkg/cachestore"
	"github.com/metricmancer/metricmancer/pkg/churn"
	"github.com/metricmancer/metricmancer/pkg/delta"
	"github.com/metricmancer/metricmancer/pkg/fileanalyzer"
	"github.com/metricmancer/metricmancer/pkg/gitcache"
	"github.com/metricmancer/metricmancer/pkg/gitrunner"
	"github.com/metricmancer/metricmancer/pkg/hierarchy"
	"github.com/metricmancer/metricmancer/pkg/languages"
	"github.com/metricmancer/metricmancer/pkg/model"
	"github.com/metricmancer/metricmancer/pkg/ownership"
	"github.com/metricmancer/metricmancer/pkg/scanner"
)

// Orchestrator wires together every pipeline stage behind the two entry
// points SPEC_FULL.md §6 requires: Analyze and Delta.
type Orchestrator struct {
	registry        *languages.Registry
	excludePatterns []string
}

// New creates an Orchestrator over the given LanguageRegistry.
func New(registry *languages.Registry, excludePatterns []string) *Orchestrator {
	return &Orchestrator{registry: registry, excludePatterns: excludePatterns}
}

// Analyze runs the Idle -> Scanning -> PerRepoAnalysis(repo) ->
// Aggregated(repo) -> Done pipeline over every configured root. A root or
// directory the scanner cannot read contributes no files; a root outside a
// git work tree gets is_git_repo=false and no ownership; a failed churn
// lookup leaves churn at 0 for that root's files; per-file failures become
// the File's Warnings. None of these aborts the run: only configuration
// errors (no roots), a cache store that cannot be opened, and cancellation
// do, per SPEC_FULL.md §7.
func (o *Orchestrator) Analyze(ctx context.Context, runCtx *model.RunContext) ([]*model.Repository, error) {
	if len(runCtx.Roots) == 0 {
		return nil, fmt.Errorf("orchestrator: configuration error: no roots configured")
	}

	store, err := openStore(runCtx.CachePath)
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer store.Close()
	}

	var repos []*model.Repository
	for _, root := range dedupeRoots(runCtx.Roots) {
		select {
		case <-ctx.Done():
			return repos, ctx.Err()
		default:
		}

		repo, err := o.analyzeRoot(ctx, root, runCtx, store)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func (o *Orchestrator) analyzeRoot(ctx context.Context, root string, runCtx *model.RunContext, store gitcache.PersistentStore) (*model.Repository, error) {
	runner := gitrunner.NewExecRunner(time.Duration(runCtx.GitTimeoutSeconds) * time.Second)
	cache := gitcache.New(runner)
	if store != nil {
		cache.WithStore(store)
	}

	isGitRepo := fileanalyzer.IsGitRepoRoot(ctx, runner, root)

	entries, err := scanner.New(o.registry, o.excludePatterns).Discover(root)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: scanning %s: %w", root, err)
	}

	var churnByPath map[string]float64
	var ownershipAnalyzer *ownership.Analyzer
	if isGitRepo {
		churnByPath, err = churn.NewAnalyzer(cache).ChurnByFile(ctx, root, runCtx.ChurnPeriodDays, runCtx.Clock())
		if err != nil {
			churnByPath = map[string]float64{}
		}
		ownershipAnalyzer = ownership.NewAnalyzer(cache, runCtx.SignificanceThreshold)
	} else {
		churnByPath = map[string]float64{}
	}

	fileAnalyzer := fileanalyzer.New(o.registry, ownershipAnalyzer)

	files, errs := scanner.Dispatch(ctx, entries, workerCount(runCtx.MaxWorkers), func(fCtx context.Context, e scanner.FileEntry) (*model.File, error) {
		relPath, relErr := filepath.Rel(root, e.Path)
		if relErr != nil {
			relPath = e.Path
		}
		req := fileanalyzer.Request{
			RepoRoot:     root,
			AbsolutePath: e.Path,
			PathRelative: filepath.ToSlash(relPath),
			LanguageTag:  e.LanguageTag,
			ChurnByPath:  churnByPath,
			OwnershipRef: runCtx.ReviewBaseBranch,
			Ctx:          runCtx,
		}
		return fileAnalyzer.Analyze(fCtx, req), nil
	})
	for _, fileErr := range errs {
		if fileErr != nil {
			return nil, fmt.Errorf("orchestrator: analyzing %s: %w", root, fileErr)
		}
	}

	repoName := filepath.Base(root)
	repo := hierarchy.New().Build(repoName, root, files)
	repo.IsGitRepo = isGitRepo
	repo.AnalysisWindowDays = runCtx.ChurnPeriodDays
	repo.BaseRef = runCtx.ReviewBaseBranch
	repo.SnapshotTime = runCtx.Clock()

	aggregator.New(runCtx.SignificanceThreshold).Aggregate(repo)

	return repo, nil
}

// Delta runs the DeltaAnalyzer over every configured root that is a git
// repository, comparing baseRef against headRef, per SPEC_FULL.md §4.12.
func (o *Orchestrator) Delta(ctx context.Context, runCtx *model.RunContext, baseRef, headRef string) ([]delta.FileChange, error) {
	if len(runCtx.Roots) == 0 {
		return nil, fmt.Errorf("orchestrator: configuration error: no roots configured")
	}

	store, err := openStore(runCtx.CachePath)
	if err != nil {
		return nil, err
	}
	if store != nil {
		defer store.Close()
	}

	var changes []delta.FileChange
	for _, root := range dedupeRoots(runCtx.Roots) {
		select {
		case <-ctx.Done():
			return changes, ctx.Err()
		default:
		}

		runner := gitrunner.NewExecRunner(time.Duration(runCtx.GitTimeoutSeconds) * time.Second)
		if !gitrunner.IsGitRepository(ctx, runner, root) {
			continue
		}

		cache := gitcache.New(runner)
		if store != nil {
			cache.WithStore(store)
		}

		analyzer := delta.NewAnalyzer(cache, o.registry)
		rootChanges, err := analyzer.Compare(ctx, root, baseRef, headRef)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: delta for %s: %w", root, err)
		}
		changes = append(changes, rootChanges...)
	}
	return changes, nil
}

func openStore(cachePath string) (gitcache.PersistentStore, error) {
	if cachePath == "" {
		return nil, nil
	}
	store, err := cachestore.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: opening cache store: %w", err)
	}
	return store, nil
}

func workerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}

// dedupeRoots removes duplicate roots by their cleaned absolute path,
// preserving first-seen order (SPEC_FULL.md §4.2's "duplicate roots ->
// deduplicate by canonical path" edge case).
func dedupeRoots(roots []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = filepath.Clean(root)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, root)
	}
	return out
}
