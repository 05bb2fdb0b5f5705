package fileanalyzer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/metricmancer/metricmancer/pkg/gitrunner"
	"github.com/metricmancer/metricmancer/pkg/hotspot"
	"github.com/metricmancer/metricmancer/pkg/kpi"
	"github.com/metricmancer/metricmancer/pkg/languages"
	"github.com/metricmancer/metricmancer/pkg/model"
	"github.com/metricmancer/metricmancer/pkg/ownership"
)

// Analyzer produces a model.File from a single source file, per
// SPEC_FULL.md §4.9: read, decode, parse, attach churn/ownership. Churn
// itself is computed once per repo/window upstream (pkg/churn) and handed
// in per-request via Request.ChurnByPath; only ownership needs a live
// per-file lookup, since blame is keyed by individual file path.
type Analyzer struct {
	registry          *languages.Registry
	ownershipAnalyzer *ownership.Analyzer
}

// New creates a file Analyzer.
func New(registry *languages.Registry, ownershipAnalyzer *ownership.Analyzer) *Analyzer {
	return &Analyzer{registry: registry, ownershipAnalyzer: ownershipAnalyzer}
}

// Request carries everything needed to analyze one file.
type Request struct {
	RepoRoot     string
	AbsolutePath string
	PathRelative string // POSIX-normalized, relative to RepoRoot
	LanguageTag  string
	ChurnByPath  map[string]float64 // pre-warmed for the whole repo/window
	OwnershipRef string             // commit ref blame is computed against, e.g. "HEAD"
	Ctx          *model.RunContext
}

// Analyze builds the model.File for one Request. Unreadable files produce a
// File node with loc=0, no functions, and only the KPIs that could be
// computed (Churn/Ownership), plus a warning, per SPEC_FULL.md §4.9.
func (a *Analyzer) Analyze(ctx context.Context, req Request) *model.File {
	name := filepath.Base(req.AbsolutePath)
	file := model.NewFile(name, req.PathRelative, req.LanguageTag)

	content, err := ReadLossyUTF8(req.AbsolutePath)
	if err != nil {
		file.Warnings = append(file.Warnings, fmt.Sprintf("unreadable file: %v", err))
		a.attachChurnAndOwnership(ctx, req, file)
		return file
	}

	file.LOC = CountLines(content)

	entry, ok := a.registry.EntryForLanguage(req.LanguageTag)
	if ok && entry.CyclomaticAvailable {
		a.attachFunctions(ctx, entry, []byte(content), file)
	}

	a.attachChurnAndOwnership(ctx, req, file)

	score := hotspot.Score(cyclomaticTotal(file), file.KPIs[kpi.Churn].Value)
	file.KPIs[kpi.Hotspot] = kpi.New(kpi.Hotspot, score, "cyclomatic*churn")

	file.KPIs[kpi.FunctionCount] = kpi.New(kpi.FunctionCount, float64(file.FunctionCount()), "functions")
	file.KPIs[kpi.LOC] = kpi.New(kpi.LOC, float64(file.LOC), "lines")

	return file
}

func (a *Analyzer) attachFunctions(ctx context.Context, entry languages.Entry, source []byte, file *model.File) {
	parsedFuncs, err := entry.Parser.ParseFunctions(source)
	if err != nil {
		file.Warnings = append(file.Warnings, fmt.Sprintf("cyclomatic parse failed: %v", err))
		return
	}

	var cognitiveByName map[string]int
	if entry.CognitiveAvailable {
		cognitiveByName, err = entry.Parser.ParseCognitive(source)
		if err != nil {
			file.Warnings = append(file.Warnings, fmt.Sprintf("cognitive parse failed: %v", err))
		}
	}

	for _, pf := range parsedFuncs {
		fn := model.NewFunction(pf.Name, pf.LineStart, pf.LineEnd)
		fn.KPIs[kpi.Cyclomatic] = kpi.New(kpi.Cyclomatic, float64(pf.Cyclomatic), "decision points")
		if cognitiveByName != nil {
			if score, ok := cognitiveByName[pf.Name]; ok {
				fn.KPIs[kpi.Cognitive] = kpi.New(kpi.Cognitive, float64(score), "score").WithMax(25)
			}
		}
		file.Functions = append(file.Functions, fn)
	}

	var cyclomaticSum, cognitiveSum float64
	var cognitiveCount int
	for _, fn := range file.Functions {
		cyclomaticSum += fn.KPIs[kpi.Cyclomatic].Value
		if k, ok := fn.KPIs[kpi.Cognitive]; ok {
			cognitiveSum += k.Value
			cognitiveCount++
		}
	}
	file.KPIs[kpi.Cyclomatic] = kpi.New(kpi.Cyclomatic, cyclomaticSum, "decision points")
	if cognitiveCount > 0 {
		file.KPIs[kpi.Cognitive] = kpi.New(kpi.Cognitive, cognitiveSum, "score")
	}
}

func cyclomaticTotal(file *model.File) int {
	if k, ok := file.KPIs[kpi.Cyclomatic]; ok {
		return int(k.Value)
	}
	return 0
}

func (a *Analyzer) attachChurnAndOwnership(ctx context.Context, req Request, file *model.File) {
	churnRate := req.ChurnByPath[req.PathRelative]
	file.KPIs[kpi.Churn] = kpi.New(kpi.Churn, churnRate, "commits/month")

	if a.ownershipAnalyzer == nil {
		return
	}

	ref := req.OwnershipRef
	if ref == "" {
		ref = "HEAD"
	}
	owners, class, err := a.ownershipAnalyzer.OwnersForFile(ctx, req.RepoRoot, req.PathRelative, ref)
	if err != nil {
		file.Warnings = append(file.Warnings, fmt.Sprintf("ownership unavailable: %v", err))
		return
	}

	ownerKPI := kpi.New(kpi.Ownership, float64(len(owners)), "authors")
	ownerKPI.Owners = owners
	file.KPIs[kpi.Ownership] = ownerKPI

	sharedValue := 0.0
	if class == ownership.Shared {
		sharedValue = 1.0
	}
	sharedKPI := kpi.New(kpi.SharedOwnership, sharedValue, "")
	sharedKPI.Description = string(class)
	file.KPIs[kpi.SharedOwnership] = sharedKPI
}

// IsGitRepoRoot reports whether root is inside a git working tree, using
// the same runner as churn/ownership. Exposed here so callers building a
// Repository node can set IsGitRepo without importing gitrunner directly.
func IsGitRepoRoot(ctx context.Context, runner gitrunner.Runner, root string) bool {
	return gitrunner.IsGitRepository(ctx, runner, root)
}
