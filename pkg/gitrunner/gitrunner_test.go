package gitrunner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRunnerReplaysRecordedOutput(t *testing.T) {
	fake := NewFakeRunner().WithResponse("abc123|jane|jane@example.com|2024-01-01", "log", "--numstat")

	out, err := fake.Run(context.Background(), "/repo", "log", "--numstat")
	require.NoError(t, err)
	assert.Equal(t, "abc123|jane|jane@example.com|2024-01-01", out)
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, "/repo", fake.Calls[0].RepoDir)
}

func TestFakeRunnerUnrecordedCallErrors(t *testing.T) {
	fake := NewFakeRunner()
	_, err := fake.Run(context.Background(), "/repo", "status")
	assert.Error(t, err)
}

func TestFakeRunnerWithError(t *testing.T) {
	fake := NewFakeRunner().WithError(context.DeadlineExceeded, "log")
	_, err := fake.Run(context.Background(), "/repo", "log")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsGitRepositoryTrueWhenRunnerSucceeds(t *testing.T) {
	fake := NewFakeRunner().WithResponse("true", "rev-parse", "--is-inside-work-tree")
	assert.True(t, IsGitRepository(context.Background(), fake, "/repo"))
}

func TestIsGitRepositoryFalseWhenRunnerErrors(t *testing.T) {
	fake := NewFakeRunner()
	assert.False(t, IsGitRepository(context.Background(), fake, "/repo"))
}

func TestExecRunnerTimeoutConfigurable(t *testing.T) {
	r := NewExecRunner(50 * time.Millisecond)
	execImpl, ok := r.(*execRunner)
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, execImpl.timeout)
}
