// Package model defines the hierarchical data model that every MetricMancer
// analysis produces: Function -> File -> Directory -> Repository.
package model

import (
	"time"

	"github.com/metricmancer/metricmancer/pkg/kpi"
)

// Function is the leaf measurement unit: a single function or method.
type Function struct {
	Name      string             `json:"name"`
	LineStart int                `json:"line_start"`
	LineEnd   int                `json:"line_end"`
	KPIs      map[kpi.Kind]kpi.KPI `json:"kpis"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// NewFunction creates a Function with an initialized KPI map.
func NewFunction(name string, lineStart, lineEnd int) *Function {
	return &Function{
		Name:      name,
		LineStart: lineStart,
		LineEnd:   lineEnd,
		KPIs:      make(map[kpi.Kind]kpi.KPI),
	}
}

// File is a leaf node of the Directory tree: a single source file.
type File struct {
	Name         string               `json:"name"`
	PathRelative string               `json:"path_relative_to_repo_root"`
	LanguageTag  string               `json:"language_tag"`
	LOC          int                  `json:"loc"`
	Functions    []*Function          `json:"functions"`
	KPIs         map[kpi.Kind]kpi.KPI `json:"kpis"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// NewFile creates a File with initialized collections.
func NewFile(name, pathRelative, languageTag string) *File {
	return &File{
		Name:         name,
		PathRelative: pathRelative,
		LanguageTag:  languageTag,
		Functions:    make([]*Function, 0),
		KPIs:         make(map[kpi.Kind]kpi.KPI),
	}
}

// FunctionCount returns the number of functions in the file.
func (f *File) FunctionCount() int {
	return len(f.Functions)
}

// Directory is an internal node of the tree. Children and Files are kept as
// both a map (for lookup) and surfaced in sorted order by Sorted*.
type Directory struct {
	DirName      string               `json:"dir_name"`
	PathRelative string               `json:"path_relative_to_repo_root"`
	Files        map[string]*File     `json:"-"`
	Children     map[string]*Directory `json:"-"`
	KPIs         map[kpi.Kind]kpi.KPI `json:"kpis"`
}

// NewDirectory creates an empty Directory node.
func NewDirectory(dirName, pathRelative string) *Directory {
	return &Directory{
		DirName:      dirName,
		PathRelative: pathRelative,
		Files:        make(map[string]*File),
		Children:     make(map[string]*Directory),
		KPIs:         make(map[kpi.Kind]kpi.KPI),
	}
}

// SortedFileNames returns file names in deterministic (ascending) order.
func (d *Directory) SortedFileNames() []string {
	return sortedKeys(d.Files)
}

// SortedChildNames returns child directory names in deterministic order.
func (d *Directory) SortedChildNames() []string {
	return sortedKeys(d.Children)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	insertionSort(names)
	return names
}

// insertionSort avoids importing sort for this tiny, frequently-called
// helper while keeping behavior identical to sort.Strings for our sizes.
func insertionSort(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// FileCount returns the total number of files in this directory and all
// descendants (the invariant tested in SPEC_FULL.md §8).
func (d *Directory) FileCount() int {
	count := len(d.Files)
	for _, child := range d.Children {
		count += child.FileCount()
	}
	return count
}

// Repository is the root of an analyzed tree. It embeds Directory (struct
// composition, per SPEC_FULL.md §9) and carries run metadata.
type Repository struct {
	Directory
	RepoName           string    `json:"repo_name"`
	AbsoluteRoot        string    `json:"absolute_root"`
	IsGitRepo           bool      `json:"is_git_repo"`
	AnalysisWindowDays  int       `json:"analysis_window_days"`
	BaseRef             string    `json:"base_ref,omitempty"`
	SnapshotTime        time.Time `json:"snapshot_time"`
}

// NewRepository creates a Repository rooted at absoluteRoot.
func NewRepository(repoName, absoluteRoot string) *Repository {
	return &Repository{
		Directory: *NewDirectory(repoName, ""),
		RepoName:  repoName,
		AbsoluteRoot: absoluteRoot,
	}
}

// RunContext carries configuration, thresholds, and a clock source through
// the pipeline, avoiding global mutable state (SPEC_FULL.md §9).
type RunContext struct {
	Roots                     []string
	ThresholdLow              float64
	ThresholdHigh             float64
	CognitiveThresholdMedium  int
	CognitiveThresholdHigh    int
	ChurnPeriodDays           int
	HotspotThreshold          float64
	SignificanceThreshold     float64
	ReviewBranchOnly          bool
	ReviewBaseBranch          string
	MaxWorkers                int
	GitTimeoutSeconds         int
	CachePath                 string
	Now                       func() time.Time
}

// DefaultRunContext returns a RunContext populated with SPEC_FULL.md §6's
// documented defaults.
func DefaultRunContext() *RunContext {
	return &RunContext{
		ThresholdLow:             10.0,
		ThresholdHigh:            20.0,
		CognitiveThresholdMedium: 10,
		CognitiveThresholdHigh:   15,
		ChurnPeriodDays:          30,
		HotspotThreshold:         50,
		SignificanceThreshold:    0.25,
		ReviewBaseBranch:         "main",
		GitTimeoutSeconds:        60,
		Now:                      time.Now,
	}
}

// Clock returns the configured clock, defaulting to time.Now.
func (c *RunContext) Clock() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
