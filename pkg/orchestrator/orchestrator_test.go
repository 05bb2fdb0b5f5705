package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricmancer/metricmancer/pkg/kpi"
	"github.com/metricmancer/metricmancer/pkg/languages"
	golang "github.com/metricmancer/metricmancer/pkg/languages/golang"
	"github.com/metricmancer/metricmancer/pkg/model"
)

func newTestOrchestrator() *Orchestrator {
	registry := languages.NewRegistry(golang.NewParser(), nil)
	return New(registry, nil)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func TestAnalyzeRejectsEmptyRoots(t *testing.T) {
	o := newTestOrchestrator()
	runCtx := model.DefaultRunContext()
	runCtx.Roots = nil

	_, err := o.Analyze(context.Background(), runCtx)
	assert.Error(t, err)
}

func TestAnalyzeNonGitDirectoryComputesComplexityWithoutChurn(t *testing.T) {
	dir := t.TempDir()
	src := `package demo

func f(x int) int {
	if x == 1 {
		return 1
	}
	return 0
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.go"), []byte(src), 0o644))

	o := newTestOrchestrator()
	runCtx := model.DefaultRunContext()
	runCtx.Roots = []string{dir}

	repos, err := o.Analyze(context.Background(), runCtx)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	repo := repos[0]
	assert.False(t, repo.IsGitRepo)
	require.Contains(t, repo.Files, "demo.go")
	file := repo.Files["demo.go"]
	assert.Equal(t, 2.0, file.KPIs[kpi.Cyclomatic].Value)
	assert.Equal(t, 0.0, file.KPIs[kpi.Churn].Value)
	assert.NotContains(t, file.KPIs, kpi.Ownership)
}

func TestAnalyzeGitRepoComputesChurnAndOwnership(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	src := `package demo

func f(x int) int {
	if x == 1 {
		return 1
	}
	return 0
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.go"), []byte(src), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")

	o := newTestOrchestrator()
	runCtx := model.DefaultRunContext()
	runCtx.Roots = []string{dir}
	runCtx.ReviewBaseBranch = "HEAD"

	repos, err := o.Analyze(context.Background(), runCtx)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	repo := repos[0]
	assert.True(t, repo.IsGitRepo)
	file := repo.Files["demo.go"]
	require.Contains(t, file.KPIs, kpi.Ownership)
	assert.Greater(t, len(file.KPIs[kpi.Ownership].Owners), 0)
}

func TestDeltaSkipsNonGitRoots(t *testing.T) {
	dir := t.TempDir()
	o := newTestOrchestrator()
	runCtx := model.DefaultRunContext()
	runCtx.Roots = []string{dir}

	changes, err := o.Delta(context.Background(), runCtx, "base", "head")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDeltaRejectsEmptyRoots(t *testing.T) {
	o := newTestOrchestrator()
	runCtx := model.DefaultRunContext()
	runCtx.Roots = nil

	_, err := o.Delta(context.Background(), runCtx, "base", "head")
	assert.Error(t, err)
}
