// Package hierarchy builds the Directory/Repository tree from a flat list
// of analyzed files grouped by repo root (SPEC_FULL.md §4.10).
package hierarchy

import (
	"path/filepath"
	"strings"

	"github.com/metricmancer/metricmancer/pkg/model"
)

// Builder assembles a model.Repository from files produced by FileAnalyzer.
type Builder struct{}

// New creates a hierarchy Builder.
func New() *Builder {
	return &Builder{}
}

// Build creates a Repository rooted at absoluteRoot and inserts every file
// at the Directory node implied by its relative path, creating intermediate
// Directory nodes as needed. Insertion order does not affect the result:
// SortedFileNames/SortedChildNames on the resulting tree are always
// alphabetical.
func (b *Builder) Build(repoName, absoluteRoot string, files []*model.File) *model.Repository {
	repo := model.NewRepository(repoName, absoluteRoot)

	for _, file := range files {
		dir := b.directoryFor(&repo.Directory, file.PathRelative)
		dir.Files[file.Name] = file
	}

	return repo
}

// directoryFor walks/creates the Directory chain for a POSIX-normalized
// relative file path and returns the leaf Directory the file belongs in.
func (b *Builder) directoryFor(root *model.Directory, pathRelative string) *model.Directory {
	normalized := filepath.ToSlash(pathRelative)
	segments := strings.Split(normalized, "/")
	dirSegments := segments[:len(segments)-1]

	current := root
	accumulated := ""
	for _, seg := range dirSegments {
		if accumulated == "" {
			accumulated = seg
		} else {
			accumulated = accumulated + "/" + seg
		}
		child, ok := current.Children[seg]
		if !ok {
			child = model.NewDirectory(seg, accumulated)
			current.Children[seg] = child
		}
		current = child
	}
	return current
}
