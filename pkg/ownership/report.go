package ownership

import (
	"sort"

	"github.com/metricmancer/metricmancer/pkg/kpi"
	"github.com/metricmancer/metricmancer/pkg/model"
)

// OwnerSummary is the per-owner roll-up across a repository, grounded on
// the teacher's OwnerMetrics shape (pkg/ownership/models.go, now removed)
// but keyed by measured blame fraction rather than CODEOWNERS membership.
type OwnerSummary struct {
	Author        string
	FileCount     int
	WeightedLines float64
}

// Report pairs the per-file ownership already attached to the tree with a
// repository-wide per-owner ranking, mirroring the teacher's
// Aggregator.GetOwnerReport shape.
type Report struct {
	Owners []OwnerSummary
}

// Summarize walks every file in the repository, crediting each author with
// their fractional share of the file's lines, and ranks owners by total
// weighted lines descending.
func Summarize(repo *model.Repository) Report {
	totals := make(map[string]*OwnerSummary)

	var walk func(dir *model.Directory)
	walk = func(dir *model.Directory) {
		for _, name := range dir.SortedFileNames() {
			file := dir.Files[name]
			ownerKPI, ok := file.KPIs[kpi.Ownership]
			if !ok {
				continue
			}
			for _, owner := range ownerKPI.Owners {
				s, exists := totals[owner.Author]
				if !exists {
					s = &OwnerSummary{Author: owner.Author}
					totals[owner.Author] = s
				}
				s.FileCount++
				s.WeightedLines += owner.Fraction * float64(file.LOC)
			}
		}
		for _, name := range dir.SortedChildNames() {
			walk(dir.Children[name])
		}
	}
	walk(&repo.Directory)

	owners := make([]OwnerSummary, 0, len(totals))
	for _, s := range totals {
		owners = append(owners, *s)
	}
	sort.Slice(owners, func(i, j int) bool {
		if owners[i].WeightedLines != owners[j].WeightedLines {
			return owners[i].WeightedLines > owners[j].WeightedLines
		}
		return owners[i].Author < owners[j].Author
	})

	return Report{Owners: owners}
}
