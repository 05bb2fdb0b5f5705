package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricmancer/metricmancer/pkg/languages"
)

type stubParser struct{ name string }

func (s stubParser) Name() string { return s.name }
func (s stubParser) ParseFunctions(source []byte) ([]languages.ParsedFunction, error) {
	return nil, nil
}
func (s stubParser) ParseCognitive(source []byte) (map[string]int, error) { return nil, nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverFindsKnownExtensionsAndSkipsHiddenAndExcluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "script.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "README.md"), "# hi\n")
	writeFile(t, filepath.Join(root, ".git", "config"), "ignored\n")
	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep\n")

	registry := languages.NewRegistry(stubParser{"go"}, stubParser{"python"})
	s := New(registry, []string{"vendor"})

	entries, err := s.Discover(root)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, filepath.Base(e.Path))
	}
	assert.Contains(t, paths, "main.go")
	assert.Contains(t, paths, "script.py")
	assert.NotContains(t, paths, "README.md")
	assert.NotContains(t, paths, "config")
	assert.NotContains(t, paths, "dep.go")
}

func TestDispatchRunsAllEntriesAndPreservesOrder(t *testing.T) {
	entries := []FileEntry{
		{Path: "a.go"}, {Path: "b.go"}, {Path: "c.go"}, {Path: "d.go"},
	}

	results, errs := Dispatch(context.Background(), entries, 2, func(_ context.Context, e FileEntry) (string, error) {
		return e.Path + "-done", nil
	})

	for i, e := range entries {
		assert.NoError(t, errs[i])
		assert.Equal(t, e.Path+"-done", results[i])
	}
}

func TestDispatchEmptyEntries(t *testing.T) {
	results, errs := Dispatch(context.Background(), nil, 4, func(_ context.Context, e FileEntry) (string, error) {
		return "", nil
	})
	assert.Empty(t, results)
	assert.Empty(t, errs)
}

func TestDispatchRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []FileEntry{{Path: "a.go"}}
	_, errs := Dispatch(ctx, entries, 1, func(_ context.Context, e FileEntry) (string, error) {
		return "unreached", nil
	})
	assert.Error(t, errs[0])
}
