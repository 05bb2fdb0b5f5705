// Package aggregator rolls up per-file KPIs to directories and the
// repository root (SPEC_FULL.md §4.11), and attaches 0-100 percentile-rank
// scores computed among sibling directories at every level of the tree.
// Grounded on the teacher's pkg/analyzer.DefaultAggregator.CalculateScores,
// generalized from a flat folder map to the recursive Directory tree.
package aggregator

import (
	"math"
	"sort"

	"github.com/metricmancer/metricmancer/pkg/kpi"
	"github.com/metricmancer/metricmancer/pkg/model"
)

// Aggregator performs the post-order roll-up and sibling scoring pass.
type Aggregator struct {
	significanceThreshold float64
}

// New creates an Aggregator. A threshold <= 0 falls back to the default
// used by pkg/ownership.
func New(significanceThreshold float64) *Aggregator {
	if significanceThreshold <= 0 {
		significanceThreshold = 0.25
	}
	return &Aggregator{significanceThreshold: significanceThreshold}
}

// node is the common shape an aggregation step reads from, whether the
// child is a File (leaf) or an already-aggregated Directory.
type node struct {
	kpis         map[kpi.Kind]kpi.KPI
	functionCount float64
	loc          float64
}

// Aggregate rolls up KPIs from files to directories to the repository root,
// then adds sibling-relative percentile scores at every level.
func (a *Aggregator) Aggregate(repo *model.Repository) {
	a.rollUp(&repo.Directory)
	a.scoreChildren(&repo.Directory)
}

// rollUp aggregates dir's own KPIs from its files and (recursively)
// aggregated children, post-order.
func (a *Aggregator) rollUp(dir *model.Directory) {
	var children []node

	for _, name := range dir.SortedFileNames() {
		f := dir.Files[name]
		children = append(children, node{
			kpis:          f.KPIs,
			functionCount: float64(f.FunctionCount()),
			loc:           float64(f.LOC),
		})
	}

	for _, name := range dir.SortedChildNames() {
		child := dir.Children[name]
		a.rollUp(child)
		children = append(children, node{
			kpis:          child.KPIs,
			functionCount: functionCountOf(child.KPIs),
			loc:           locOf(child.KPIs),
		})
	}

	dir.KPIs = a.combine(children)
}

func functionCountOf(kpis map[kpi.Kind]kpi.KPI) float64 {
	if k, ok := kpis[kpi.FunctionCount]; ok {
		return k.Value
	}
	return 0
}

func locOf(kpis map[kpi.Kind]kpi.KPI) float64 {
	if k, ok := kpis[kpi.LOC]; ok {
		return k.Value
	}
	return 0
}

// combine produces the aggregated KPI map for one directory from its
// immediate children (files and/or already-aggregated subdirectories).
func (a *Aggregator) combine(children []node) map[kpi.Kind]kpi.KPI {
	result := make(map[kpi.Kind]kpi.KPI)
	if len(children) == 0 {
		result[kpi.FunctionCount] = kpi.New(kpi.FunctionCount, 0, "functions")
		result[kpi.LOC] = kpi.New(kpi.LOC, 0, "lines")
		return result
	}

	var totalFunctions, totalLOC float64
	for _, c := range children {
		totalFunctions += c.functionCount
		totalLOC += c.loc
	}
	result[kpi.FunctionCount] = kpi.New(kpi.FunctionCount, totalFunctions, "functions")
	result[kpi.LOC] = kpi.New(kpi.LOC, totalLOC, "lines")

	result[kpi.Cyclomatic] = a.weightedByFunctionCount(children, kpi.Cyclomatic, "decision points", totalFunctions)
	result[kpi.Cognitive] = a.weightedByFunctionCount(children, kpi.Cognitive, "score", totalFunctions)
	result[kpi.Hotspot] = a.weightedByFunctionCount(children, kpi.Hotspot, "cyclomatic*churn", totalFunctions)

	result[kpi.Churn] = a.meanAcrossChildren(children, kpi.Churn, "commits/month")

	a.combineOwnership(children, totalLOC, result)

	return result
}

// weightedByFunctionCount averages a complexity-style KPI across children,
// weighted by each child's function_count, and records the maximum as
// kind_max via KPI.WithMax (SPEC_FULL.md §4.11).
func (a *Aggregator) weightedByFunctionCount(children []node, kind kpi.Kind, unit string, totalFunctions float64) kpi.KPI {
	var weightedSum, max float64
	var seen bool
	for _, c := range children {
		k, ok := c.kpis[kind]
		if !ok {
			continue
		}
		if !seen || k.Value > max {
			max = k.Value
		}
		seen = true
		weight := c.functionCount
		if weight == 0 {
			weight = 1
		}
		weightedSum += k.Value * weight
	}
	if !seen {
		return kpi.New(kind, 0, unit)
	}
	value := weightedSum
	if totalFunctions > 0 {
		value = weightedSum / totalFunctions
	}
	return kpi.New(kind, value, unit).WithMax(max)
}

// meanAcrossChildren implements the spec's explicit churn roll-up:
// "the sum of its files' churn values divided by file count (mean)".
func (a *Aggregator) meanAcrossChildren(children []node, kind kpi.Kind, unit string) kpi.KPI {
	var sum float64
	var count int
	for _, c := range children {
		if k, ok := c.kpis[kind]; ok {
			sum += k.Value
			count++
		}
	}
	if count == 0 {
		return kpi.New(kind, 0, unit)
	}
	return kpi.New(kind, sum/float64(count), unit)
}

// combineOwnership merges each child's owner fractions into a line-weighted
// union, then re-classifies shared-ownership from the merged map.
func (a *Aggregator) combineOwnership(children []node, totalLOC float64, result map[kpi.Kind]kpi.KPI) {
	weightedLines := make(map[string]float64)
	displayNames := make(map[string]string)

	for _, c := range children {
		ownerKPI, ok := c.kpis[kpi.Ownership]
		if !ok {
			continue
		}
		for _, owner := range ownerKPI.Owners {
			key := owner.Author
			weightedLines[key] += owner.Fraction * c.loc
			displayNames[key] = owner.Author
		}
	}

	if len(weightedLines) == 0 {
		return
	}

	owners := make([]kpi.OwnerFraction, 0, len(weightedLines))
	for key, lines := range weightedLines {
		fraction := 0.0
		if totalLOC > 0 {
			fraction = lines / totalLOC
		}
		owners = append(owners, kpi.OwnerFraction{
			Author:    displayNames[key],
			LineCount: int(math.Round(lines)),
			Fraction:  fraction,
		})
	}
	sort.Slice(owners, func(i, j int) bool {
		if owners[i].Fraction != owners[j].Fraction {
			return owners[i].Fraction > owners[j].Fraction
		}
		return owners[i].Author < owners[j].Author
	})

	ownerKPI := kpi.New(kpi.Ownership, float64(len(owners)), "authors")
	ownerKPI.Owners = owners
	result[kpi.Ownership] = ownerKPI

	class := a.classify(owners)
	sharedValue := 0.0
	if class == "shared" {
		sharedValue = 1.0
	}
	sharedKPI := kpi.New(kpi.SharedOwnership, sharedValue, "")
	sharedKPI.Description = class
	result[kpi.SharedOwnership] = sharedKPI
}

// classify mirrors pkg/ownership.Analyzer.Classify's significance rule,
// applied to an already-merged owner map rather than a single file's blame.
func (a *Aggregator) classify(owners []kpi.OwnerFraction) string {
	if len(owners) == 0 {
		return "orphaned"
	}
	significant := 0
	for _, o := range owners {
		if o.Fraction >= a.significanceThreshold {
			significant++
		}
	}
	if significant <= 1 {
		return "single-owner"
	}
	return "shared"
}

// scoreChildren attaches 0-100 percentile-rank scores to dir's immediate
// subdirectories, computed among those siblings only, then recurses so
// every level of the tree is scored relative to its own siblings.
func (a *Aggregator) scoreChildren(dir *model.Directory) {
	names := dir.SortedChildNames()
	if len(names) == 0 {
		return
	}

	complexities := make([]float64, 0, len(names))
	churns := make([]float64, 0, len(names))
	for _, name := range names {
		child := dir.Children[name]
		complexities = append(complexities, child.KPIs[kpi.Cyclomatic].Value)
		churns = append(churns, child.KPIs[kpi.Churn].Value)
	}
	sort.Float64s(complexities)
	sort.Float64s(churns)

	for _, name := range names {
		child := dir.Children[name]
		complexityScore := percentileRank(child.KPIs[kpi.Cyclomatic].Value, complexities)
		churnScore := percentileRank(child.KPIs[kpi.Churn].Value, churns)
		hotspotScore := (complexityScore + churnScore) / 2

		child.KPIs[kpi.ComplexityScore] = kpi.New(kpi.ComplexityScore, complexityScore, "percentile")
		child.KPIs[kpi.ChurnScore] = kpi.New(kpi.ChurnScore, churnScore, "percentile")
		child.KPIs[kpi.HotspotScore] = kpi.New(kpi.HotspotScore, hotspotScore, "percentile")

		a.scoreChildren(child)
	}
}

// percentileRank calculates the percentile rank (0-100) of value in
// sortedValues: the fraction of sibling values at or below it.
func percentileRank(value float64, sortedValues []float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}

	count := 0
	for _, v := range sortedValues {
		if v <= value {
			count++
		}
	}

	percentile := (float64(count) / float64(len(sortedValues))) * 100.0
	if percentile < 0 {
		percentile = 0
	}
	if percentile > 100 {
		percentile = 100
	}
	return percentile
}
