package delta

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricmancer/metricmancer/pkg/gitcache"
	"github.com/metricmancer/metricmancer/pkg/gitrunner"
	"github.com/metricmancer/metricmancer/pkg/languages"
	golang "github.com/metricmancer/metricmancer/pkg/languages/golang"
)

func newTestAnalyzer(fake *gitrunner.FakeRunner) *Analyzer {
	cache := gitcache.New(fake)
	registry := languages.NewRegistry(golang.NewParser(), nil)
	return NewAnalyzer(cache, registry)
}

func TestCompareModifiedFileFlagsComplexityIncrease(t *testing.T) {
	baseSrc := `package demo

func f(x int) int {
	if x == 1 {
		return 1
	}
	return 0
}
`
	headSrc := `package demo

func f(x int) int {
	if x == 1 {
		return 1
	}
	if x == 2 {
		return 2
	}
	if x == 3 {
		return 3
	}
	if x == 4 {
		return 4
	}
	if x == 5 {
		return 5
	}
	if x == 6 {
		return 6
	}
	return 0
}
`
	fake := gitrunner.NewFakeRunner().
		WithResponse("M\tdemo.go\n", "diff", "--name-status", "base", "head").
		WithResponse(baseSrc, "show", "base:demo.go").
		WithResponse(headSrc, "show", "head:demo.go")

	a := newTestAnalyzer(fake)
	changes, err := a.Compare(context.Background(), "/repo", "base", "head")
	require.NoError(t, err)
	require.Len(t, changes, 1)

	fc := changes[0]
	assert.Equal(t, Modified, fc.Status)
	require.Len(t, fc.FunctionChanges, 1)
	change := fc.FunctionChanges[0]
	assert.Equal(t, "f", change.Name)
	assert.Greater(t, change.CyclomaticAfter, change.CyclomaticBefore)
	assert.NotEmpty(t, change.Warning)
}

func TestCompareAddedFileYieldsAddedFunctions(t *testing.T) {
	headSrc := `package demo

func g() int {
	return 1
}
`
	fake := gitrunner.NewFakeRunner().
		WithResponse("A\tnew.go\n", "diff", "--name-status", "base", "head").
		WithResponse(headSrc, "show", "head:new.go")

	a := newTestAnalyzer(fake)
	changes, err := a.Compare(context.Background(), "/repo", "base", "head")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Added, changes[0].Status)
	require.Len(t, changes[0].FunctionChanges, 1)
	assert.Equal(t, Added, changes[0].FunctionChanges[0].Status)
	assert.Equal(t, "g", changes[0].FunctionChanges[0].Name)
}

func TestCompareDeletedFileYieldsDeletedFunctions(t *testing.T) {
	baseSrc := `package demo

func h() int {
	return 1
}
`
	fake := gitrunner.NewFakeRunner().
		WithResponse("D\told.go\n", "diff", "--name-status", "base", "head").
		WithResponse(baseSrc, "show", "base:old.go")

	a := newTestAnalyzer(fake)
	changes, err := a.Compare(context.Background(), "/repo", "base", "head")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Deleted, changes[0].Status)
	require.Len(t, changes[0].FunctionChanges, 1)
	assert.Equal(t, Deleted, changes[0].FunctionChanges[0].Status)
}

func TestCompareUnchangedFunctionProducesNoWarning(t *testing.T) {
	src := `package demo

func same(x int) int {
	if x == 1 {
		return 1
	}
	return 0
}
`
	fake := gitrunner.NewFakeRunner().
		WithResponse("M\tdemo.go\n", "diff", "--name-status", "base", "head").
		WithResponse(src, "show", "base:demo.go").
		WithResponse(src, "show", "head:demo.go")

	a := newTestAnalyzer(fake)
	changes, err := a.Compare(context.Background(), "/repo", "base", "head")
	require.NoError(t, err)
	require.Len(t, changes[0].FunctionChanges, 1)
	change := changes[0].FunctionChanges[0]
	assert.Equal(t, change.CyclomaticBefore, change.CyclomaticAfter)
	assert.Empty(t, change.Warning)
}

func TestFileStatusMapsGitCodes(t *testing.T) {
	assert.Equal(t, Added, fileStatus("A"))
	assert.Equal(t, Deleted, fileStatus("D"))
	assert.Equal(t, Renamed, fileStatus("R100"))
	assert.Equal(t, Modified, fileStatus("M"))
}
