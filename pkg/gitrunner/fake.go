package gitrunner

import (
	"context"
	"fmt"
	"strings"
)

// FakeRunner is a test double that replays recorded outputs keyed by the
// joined argument list, so git-dependent code can be tested without a real
// repository.
type FakeRunner struct {
	// Responses maps "arg1 arg2 ..." to the stdout git would have produced.
	Responses map[string]string
	// Errors maps the same key to an error to return instead.
	Errors map[string]error
	// Calls records every invocation for assertions in tests.
	Calls []Call
}

// Call records one Run invocation against the fake.
type Call struct {
	RepoDir string
	Args    []string
}

// NewFakeRunner creates an empty FakeRunner ready for Responses to be set.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

func (f *FakeRunner) key(args []string) string {
	return strings.Join(args, " ")
}

// WithResponse registers the stdout to return for a given argument list.
func (f *FakeRunner) WithResponse(output string, args ...string) *FakeRunner {
	f.Responses[f.key(args)] = output
	return f
}

// WithError registers the error to return for a given argument list.
func (f *FakeRunner) WithError(err error, args ...string) *FakeRunner {
	f.Errors[f.key(args)] = err
	return f
}

func (f *FakeRunner) Run(_ context.Context, repoDir string, args ...string) (string, error) {
	f.Calls = append(f.Calls, Call{RepoDir: repoDir, Args: args})

	key := f.key(args)
	if err, ok := f.Errors[key]; ok {
		return "", err
	}
	if output, ok := f.Responses[key]; ok {
		return output, nil
	}
	return "", fmt.Errorf("fake git runner: no response recorded for %q", key)
}
