// Package scanner discovers analyzable files under a root and dispatches
// per-file work across a bounded worker pool (SPEC_FULL.md §4 row 1, §5).
// The directory walk is grounded on the teacher's Pipeline.discoverFiles
// (pkg/analyzer/pipeline.go), generalized from the teacher's ad-hoc
// registry.GetAnalyzerForFile lookup to the languages.Registry built in
// this repository, and extended with hidden-file/symlink exclusion.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/metricmancer/metricmancer/pkg/languages"
)

// FileEntry is one discovered analyzable file.
type FileEntry struct {
	RepoRoot    string
	Path        string
	LanguageTag string
}

// Scanner walks a root directory collecting files the registry recognizes.
type Scanner struct {
	registry        *languages.Registry
	excludePatterns []string
}

// New creates a Scanner bound to a language registry and a set of
// filepath.Match-style exclude patterns (matched against the base name, as
// in the teacher's shouldExclude) plus a path-substring fallback.
func New(registry *languages.Registry, excludePatterns []string) *Scanner {
	return &Scanner{registry: registry, excludePatterns: excludePatterns}
}

// Discover walks repoRoot and returns every file with a known extension, in
// filepath.Walk's lexical order for determinism, skipping hidden entries and
// symlinks. A root or directory that cannot be read contributes no files and
// does not stop the walk; no warning is recorded for it.
func (s *Scanner) Discover(repoRoot string) ([]FileEntry, error) {
	var entries []FileEntry

	err := filepath.Walk(repoRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path, repoRoot) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if s.shouldExclude(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if s.shouldExclude(path) {
			return nil
		}

		lang := s.registry.LanguageForFile(path)
		if lang == "" {
			return nil
		}

		entries = append(entries, FileEntry{RepoRoot: repoRoot, Path: path, LanguageTag: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func isHidden(path, root string) bool {
	if path == root {
		return false
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func (s *Scanner) shouldExclude(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.excludePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// Dispatch runs work for each entry across a bounded pool of maxWorkers
// goroutines (capped to len(entries), minimum 1), stopping early if ctx is
// cancelled between files per SPEC_FULL.md §5's cooperative-cancellation
// rule. Results are returned in the same order as entries.
func Dispatch[T any](ctx context.Context, entries []FileEntry, maxWorkers int, work func(context.Context, FileEntry) (T, error)) ([]T, []error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if maxWorkers > len(entries) {
		maxWorkers = len(entries)
	}
	if maxWorkers == 0 {
		return nil, nil
	}

	results := make([]T, len(entries))
	errs := make([]error, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
					continue
				default:
				}
				results[i], errs[i] = work(ctx, entries[i])
			}
		}()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, errs
}
