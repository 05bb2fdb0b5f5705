// Package delta implements the function-level DeltaAnalyzer (SPEC_FULL.md
// §4.12): compare two snapshots of a repository and report which functions
// were added, removed, or changed complexity. Grounded on the teacher's
// cmd/kaizen/diff.go, which compares two whole-repository AnalysisResult
// snapshots at the summary level (CompareAnalyses/AnalysisDiff) but has no
// function-level alignment step; that step is new here.
package delta

import (
	"context"
	"fmt"

	"github.com/metricmancer/metricmancer/pkg/gitcache"
	"github.com/metricmancer/metricmancer/pkg/languages"
)

// Status is the change kind for a file or function between two snapshots.
type Status string

const (
	Added    Status = "added"
	Deleted  Status = "deleted"
	Modified Status = "modified"
	Renamed  Status = "renamed"
)

// Default complexity-increase thresholds a FunctionChange is flagged at.
const (
	DefaultCyclomaticIncreaseThreshold = 5
	DefaultCognitiveIncreaseThreshold  = 3
)

// FunctionChange is one function's complexity delta between base and head.
// Fields that don't apply to Added/Deleted functions are left at their zero
// value; callers should gate on Status before reading *Before/*After.
type FunctionChange struct {
	Name             string
	Status           Status
	CyclomaticBefore int
	CyclomaticAfter  int
	CognitiveBefore  int
	CognitiveAfter   int
	Warning          string
}

// FileChange is one file's change record, with its function-level deltas.
type FileChange struct {
	Status          Status
	Path            string
	FunctionChanges []FunctionChange
}

// Analyzer computes the function-level change set between two refs.
type Analyzer struct {
	cache                       *gitcache.Cache
	registry                    *languages.Registry
	cyclomaticIncreaseThreshold int
	cognitiveIncreaseThreshold  int
}

// Option configures an Analyzer's warning thresholds.
type Option func(*Analyzer)

// WithThresholds overrides the default +5 cyclomatic / +3 cognitive
// complexity-increase warning thresholds.
func WithThresholds(cyclomatic, cognitive int) Option {
	return func(a *Analyzer) {
		a.cyclomaticIncreaseThreshold = cyclomatic
		a.cognitiveIncreaseThreshold = cognitive
	}
}

// NewAnalyzer creates a delta Analyzer.
func NewAnalyzer(cache *gitcache.Cache, registry *languages.Registry, opts ...Option) *Analyzer {
	a := &Analyzer{
		cache:                       cache,
		registry:                    registry,
		cyclomaticIncreaseThreshold: DefaultCyclomaticIncreaseThreshold,
		cognitiveIncreaseThreshold:  DefaultCognitiveIncreaseThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compare computes the file/function change set between baseRef and
// headRef for repoRoot, per SPEC_FULL.md §4.12's algorithm.
func (a *Analyzer) Compare(ctx context.Context, repoRoot, baseRef, headRef string) ([]FileChange, error) {
	entries, err := a.cache.DiffNameStatus(ctx, repoRoot, baseRef, headRef)
	if err != nil {
		return nil, fmt.Errorf("delta: %w", err)
	}

	var changes []FileChange
	for _, entry := range entries {
		change, err := a.compareFile(ctx, repoRoot, baseRef, headRef, entry)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (a *Analyzer) compareFile(ctx context.Context, repoRoot, baseRef, headRef string, entry gitcache.DiffEntry) (FileChange, error) {
	status := fileStatus(entry.Status)
	change := FileChange{Status: status, Path: entry.Path}

	switch status {
	case Added:
		funcs, cognitive := a.parse(entry.Path, a.show(ctx, repoRoot, headRef, entry.Path))
		for _, fn := range funcs {
			change.FunctionChanges = append(change.FunctionChanges, FunctionChange{
				Name: fn.Name, Status: Added,
				CyclomaticAfter: fn.Cyclomatic,
				CognitiveAfter:  cognitive[fn.Name],
			})
		}
		return change, nil

	case Deleted:
		oldPath := entry.Path
		funcs, cognitive := a.parse(oldPath, a.show(ctx, repoRoot, baseRef, oldPath))
		for _, fn := range funcs {
			change.FunctionChanges = append(change.FunctionChanges, FunctionChange{
				Name: fn.Name, Status: Deleted,
				CyclomaticBefore: fn.Cyclomatic,
				CognitiveBefore:  cognitive[fn.Name],
			})
		}
		return change, nil
	}

	oldPath := entry.Path
	if entry.OldPath != "" {
		oldPath = entry.OldPath
	}

	baseFuncs, baseCognitive := a.parse(oldPath, a.show(ctx, repoRoot, baseRef, oldPath))
	headFuncs, headCognitive := a.parse(entry.Path, a.show(ctx, repoRoot, headRef, entry.Path))

	change.FunctionChanges = a.alignAndDiff(baseFuncs, headFuncs, baseCognitive, headCognitive)
	return change, nil
}

// show fetches file content at a ref, tolerating errors by returning "" —
// the caller's parse step then yields an empty function list rather than
// aborting the whole comparison for one unreadable revision.
func (a *Analyzer) show(ctx context.Context, repoRoot, ref, path string) string {
	content, err := a.cache.Show(ctx, repoRoot, ref, path)
	if err != nil {
		return ""
	}
	return content
}

// parse returns the function list and per-function cognitive scores for a
// revision's content. Unreadable/unparseable revisions yield an empty
// result rather than an error, so one bad side of a diff doesn't abort the
// whole comparison.
func (a *Analyzer) parse(path, content string) ([]languages.ParsedFunction, map[string]int) {
	if content == "" {
		return nil, nil
	}
	lang := a.registry.LanguageForFile(path)
	entry, ok := a.registry.EntryForLanguage(lang)
	if !ok || !entry.CyclomaticAvailable {
		return nil, nil
	}
	funcs, err := entry.Parser.ParseFunctions([]byte(content))
	if err != nil {
		return nil, nil
	}
	var cognitive map[string]int
	if entry.CognitiveAvailable {
		cognitive, _ = entry.Parser.ParseCognitive([]byte(content))
	}
	return funcs, cognitive
}

// alignAndDiff aligns before/after function lists by name (when the name is
// unique on both sides), falling back to nearest-overlapping-line-range
// alignment, then computes per-function complexity deltas.
func (a *Analyzer) alignAndDiff(before, after []languages.ParsedFunction, beforeCognitive, afterCognitive map[string]int) []FunctionChange {
	beforeByName := indexByName(before)
	afterByName := indexByName(after)

	var changes []FunctionChange
	matchedAfter := make(map[int]bool)

	for _, b := range before {
		if afterIdx, ok := uniqueMatch(b.Name, beforeByName, afterByName); ok {
			changes = append(changes, a.functionChange(b, after[afterIdx], beforeCognitive, afterCognitive))
			matchedAfter[afterIdx] = true
			continue
		}

		if afterIdx, ok := nearestOverlap(b, after, matchedAfter); ok {
			changes = append(changes, a.functionChange(b, after[afterIdx], beforeCognitive, afterCognitive))
			matchedAfter[afterIdx] = true
			continue
		}

		changes = append(changes, FunctionChange{
			Name: b.Name, Status: Deleted,
			CyclomaticBefore: b.Cyclomatic,
			CognitiveBefore:  beforeCognitive[b.Name],
		})
	}

	for i, aFn := range after {
		if matchedAfter[i] {
			continue
		}
		changes = append(changes, FunctionChange{
			Name: aFn.Name, Status: Added,
			CyclomaticAfter: aFn.Cyclomatic,
			CognitiveAfter:  afterCognitive[aFn.Name],
		})
	}

	return changes
}

func (a *Analyzer) functionChange(before, after languages.ParsedFunction, beforeCognitive, afterCognitive map[string]int) FunctionChange {
	change := FunctionChange{
		Name:             after.Name,
		Status:           Modified,
		CyclomaticBefore: before.Cyclomatic,
		CyclomaticAfter:  after.Cyclomatic,
		CognitiveBefore:  beforeCognitive[before.Name],
		CognitiveAfter:   afterCognitive[after.Name],
	}

	cyclomaticIncrease := change.CyclomaticAfter - change.CyclomaticBefore
	cognitiveIncrease := change.CognitiveAfter - change.CognitiveBefore
	switch {
	case cyclomaticIncrease >= a.cyclomaticIncreaseThreshold:
		change.Warning = fmt.Sprintf("cyclomatic complexity increased by %d", cyclomaticIncrease)
	case cognitiveIncrease >= a.cognitiveIncreaseThreshold:
		change.Warning = fmt.Sprintf("cognitive complexity increased by %d", cognitiveIncrease)
	}
	return change
}

func indexByName(funcs []languages.ParsedFunction) map[string][]int {
	idx := make(map[string][]int)
	for i, f := range funcs {
		idx[f.Name] = append(idx[f.Name], i)
	}
	return idx
}

// uniqueMatch returns the after-index for name when it appears exactly once
// on both sides.
func uniqueMatch(name string, beforeByName, afterByName map[string][]int) (int, bool) {
	if len(beforeByName[name]) != 1 || len(afterByName[name]) != 1 {
		return 0, false
	}
	return afterByName[name][0], true
}

// nearestOverlap finds the unmatched after-function whose line range
// overlaps b's most, for functions whose name isn't a unique match (renamed
// or overloaded functions).
func nearestOverlap(b languages.ParsedFunction, after []languages.ParsedFunction, matched map[int]bool) (int, bool) {
	best := -1
	bestOverlap := 0
	for i, aFn := range after {
		if matched[i] {
			continue
		}
		overlap := overlapLines(b.LineStart, b.LineEnd, aFn.LineStart, aFn.LineEnd)
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func overlapLines(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end < start {
		return 0
	}
	return end - start + 1
}

func fileStatus(gitStatus string) Status {
	if len(gitStatus) == 0 {
		return Modified
	}
	switch gitStatus[0] {
	case 'A':
		return Added
	case 'D':
		return Deleted
	case 'R':
		return Renamed
	default:
		return Modified
	}
}
