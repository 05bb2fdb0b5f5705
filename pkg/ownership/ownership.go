// Package ownership computes per-file author line fractions from git blame
// (SPEC_FULL.md §4.7). The teacher's pkg/ownership computed ownership from a
// static CODEOWNERS file (pattern matching, last-match-wins); that answers a
// different question (declared vs. measured ownership) and is replaced
// here, but its aggregation/ranking shape (pkg/ownership/aggregator.go's
// AggregateByOwner/GetOwnerReport) is kept and re-grounded on blame
// fractions instead of CODEOWNERS membership.
package ownership

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/metricmancer/metricmancer/pkg/gitcache"
	"github.com/metricmancer/metricmancer/pkg/kpi"
)

// Classification is the shared-ownership verdict for a file.
type Classification string

const (
	SingleOwner Classification = "single-owner"
	Shared      Classification = "shared"
	Orphaned    Classification = "orphaned"
)

// DefaultSignificanceThreshold is the default fraction an author must reach
// to count toward shared-ownership classification.
const DefaultSignificanceThreshold = 0.25

// Analyzer computes per-file ownership from git blame.
type Analyzer struct {
	cache                 *gitcache.Cache
	significanceThreshold float64
}

// NewAnalyzer creates an Analyzer with the given significance threshold.
// A threshold <= 0 falls back to DefaultSignificanceThreshold.
func NewAnalyzer(cache *gitcache.Cache, significanceThreshold float64) *Analyzer {
	if significanceThreshold <= 0 {
		significanceThreshold = DefaultSignificanceThreshold
	}
	return &Analyzer{cache: cache, significanceThreshold: significanceThreshold}
}

// OwnersForFile returns the blame-fraction owner list for a file at ref,
// sorted by Fraction descending, plus the shared-ownership classification.
func (a *Analyzer) OwnersForFile(ctx context.Context, repoRoot, filePath, ref string) ([]kpi.OwnerFraction, Classification, error) {
	lines, err := a.cache.Blame(ctx, repoRoot, filePath, ref)
	if err != nil {
		return nil, Orphaned, fmt.Errorf("ownership: %w", err)
	}
	if len(lines) == 0 {
		return nil, Orphaned, nil
	}

	counts := make(map[string]int)
	displayNames := make(map[string]string)
	for _, l := range lines {
		key := strings.ToLower(l.AuthorEmail)
		if key == "" {
			key = strings.ToLower(l.Author)
		}
		counts[key]++
		if _, ok := displayNames[key]; !ok {
			displayNames[key] = l.Author
		}
	}

	total := len(lines)
	owners := make([]kpi.OwnerFraction, 0, len(counts))
	for key, count := range counts {
		owners = append(owners, kpi.OwnerFraction{
			Author:    displayNames[key],
			LineCount: count,
			Fraction:  float64(count) / float64(total),
		})
	}

	sort.Slice(owners, func(i, j int) bool {
		if owners[i].Fraction != owners[j].Fraction {
			return owners[i].Fraction > owners[j].Fraction
		}
		return owners[i].Author < owners[j].Author
	})

	return owners, a.Classify(owners), nil
}

// Classify implements SPEC_FULL.md §4.7's shared-ownership rule: count
// authors whose fraction is at or above the significance threshold.
func (a *Analyzer) Classify(owners []kpi.OwnerFraction) Classification {
	if len(owners) == 0 {
		return Orphaned
	}
	significant := 0
	for _, o := range owners {
		if o.Fraction >= a.significanceThreshold {
			significant++
		}
	}
	if significant <= 1 {
		return SingleOwner
	}
	return Shared
}
