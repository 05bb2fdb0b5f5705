// Package churn computes windowed commit-rate churn per file (SPEC_FULL.md
// §4.6), replacing the teacher's cumulative GitChurnAnalyzer
// (pkg/churn/analyzer.go) with the windowed, rate-per-month semantics this
// specification requires (see DESIGN.md's open-question resolution).
package churn

import (
	"context"
	"fmt"
	"time"

	"github.com/metricmancer/metricmancer/pkg/gitcache"
)

// Analyzer computes commits-per-month for every file touched within a
// window ending at a snapshot time.
type Analyzer struct {
	cache *gitcache.Cache
}

// NewAnalyzer creates a churn Analyzer backed by the given cache.
func NewAnalyzer(cache *gitcache.Cache) *Analyzer {
	return &Analyzer{cache: cache}
}

// ChurnByFile returns commits_per_month for every path touched by a
// non-merge commit with author-date inside [snapshotTime-windowDays,
// snapshotTime]. Files with no commits in the window are simply absent;
// callers should treat a missing entry as 0.0, per SPEC_FULL.md §4.6's
// "zero is represented explicitly" guarantee (the caller-facing
// FileAnalyzer fills the zero in, see pkg/fileanalyzer).
func (a *Analyzer) ChurnByFile(ctx context.Context, repoRoot string, windowDays int, snapshotTime time.Time) (map[string]float64, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("churn: window must be positive, got %d days", windowDays)
	}

	since := snapshotTime.AddDate(0, 0, -windowDays)
	commits, err := a.cache.LogNumstat(ctx, repoRoot, since, snapshotTime)
	if err != nil {
		return nil, fmt.Errorf("churn: %w", err)
	}

	commitsByFile := make(map[string]map[string]bool)
	for _, c := range commits {
		if c.Date.Before(since) || c.Date.After(snapshotTime) {
			continue
		}
		if commitsByFile[c.Path] == nil {
			commitsByFile[c.Path] = make(map[string]bool)
		}
		commitsByFile[c.Path][c.Hash] = true
	}

	months := float64(windowDays) / 30.0
	result := make(map[string]float64, len(commitsByFile))
	for path, hashes := range commitsByFile {
		result[path] = float64(len(hashes)) / months
	}
	return result, nil
}

// RatePerMonth converts a raw commit count over windowDays into the
// commits_per_month rate defined by SPEC_FULL.md §4.6.
func RatePerMonth(commitCount, windowDays int) float64 {
	if windowDays <= 0 {
		return 0
	}
	return float64(commitCount) / (float64(windowDays) / 30.0)
}
