package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricmancer/metricmancer/pkg/model"
)

func newTestFile(name, pathRelative string) *model.File {
	return model.NewFile(name, pathRelative, "go")
}

func TestBuildFlatFilesAtRoot(t *testing.T) {
	b := New()
	files := []*model.File{
		newTestFile("b.go", "b.go"),
		newTestFile("a.go", "a.go"),
	}

	repo := b.Build("demo", "/abs/demo", files)

	assert.Equal(t, "demo", repo.RepoName)
	assert.Equal(t, []string{"a.go", "b.go"}, repo.SortedFileNames())
	assert.Empty(t, repo.SortedChildNames())
}

func TestBuildNestedDirectoriesCreatedAndSorted(t *testing.T) {
	b := New()
	files := []*model.File{
		newTestFile("util.go", "pkg/util.go"),
		newTestFile("main.go", "cmd/app/main.go"),
		newTestFile("helper.go", "pkg/sub/helper.go"),
	}

	repo := b.Build("demo", "/abs/demo", files)

	assert.Equal(t, []string{"cmd", "pkg"}, repo.SortedChildNames())

	pkgDir := repo.Children["pkg"]
	require.NotNil(t, pkgDir)
	assert.Equal(t, []string{"util.go"}, pkgDir.SortedFileNames())
	assert.Equal(t, []string{"sub"}, pkgDir.SortedChildNames())

	subDir := pkgDir.Children["sub"]
	require.NotNil(t, subDir)
	assert.Equal(t, []string{"helper.go"}, subDir.SortedFileNames())

	cmdDir := repo.Children["cmd"]
	require.NotNil(t, cmdDir)
	appDir := cmdDir.Children["app"]
	require.NotNil(t, appDir)
	assert.Equal(t, []string{"main.go"}, appDir.SortedFileNames())

	assert.Equal(t, 3, repo.FileCount())
}

func TestBuildSharesDirectoryAcrossMultipleFiles(t *testing.T) {
	b := New()
	files := []*model.File{
		newTestFile("a.go", "pkg/a.go"),
		newTestFile("b.go", "pkg/b.go"),
	}

	repo := b.Build("demo", "/abs/demo", files)

	require.Len(t, repo.Children, 1)
	pkgDir := repo.Children["pkg"]
	require.NotNil(t, pkgDir)
	assert.Equal(t, []string{"a.go", "b.go"}, pkgDir.SortedFileNames())
}
