package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCountInvariant(t *testing.T) {
	root := NewDirectory("repo", "")
	root.Files["a.go"] = NewFile("a.go", "a.go", "go")
	root.Files["b.go"] = NewFile("b.go", "b.go", "go")

	child := NewDirectory("sub", "sub")
	child.Files["c.go"] = NewFile("c.go", "sub/c.go", "go")
	root.Children["sub"] = child

	require.Equal(t, 3, root.FileCount())
	assert.Equal(t, 1, child.FileCount())
}

func TestSortedNamesDeterministic(t *testing.T) {
	root := NewDirectory("repo", "")
	root.Files["z.go"] = NewFile("z.go", "z.go", "go")
	root.Files["a.go"] = NewFile("a.go", "a.go", "go")
	root.Children["zeta"] = NewDirectory("zeta", "zeta")
	root.Children["alpha"] = NewDirectory("alpha", "alpha")

	assert.Equal(t, []string{"a.go", "z.go"}, root.SortedFileNames())
	assert.Equal(t, []string{"alpha", "zeta"}, root.SortedChildNames())
}

func TestFunctionCount(t *testing.T) {
	f := NewFile("f.go", "f.go", "go")
	assert.Equal(t, 0, f.FunctionCount())
	f.Functions = append(f.Functions, NewFunction("foo", 1, 3))
	assert.Equal(t, 1, f.FunctionCount())
}

func TestDefaultRunContextDefaults(t *testing.T) {
	rc := DefaultRunContext()
	assert.Equal(t, 10.0, rc.ThresholdLow)
	assert.Equal(t, 20.0, rc.ThresholdHigh)
	assert.Equal(t, 30, rc.ChurnPeriodDays)
	assert.Equal(t, "main", rc.ReviewBaseBranch)
	assert.NotNil(t, rc.Clock)
}
