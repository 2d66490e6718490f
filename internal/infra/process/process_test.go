package process

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adbrush/internal/domain"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	requireShell(t)

	result, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	require.Equal(t, "out\n", string(result.Stdout))
	require.Equal(t, "err\n", string(result.Stderr))
	require.Zero(t, result.ExitCode)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)

	result, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken 1>&2; exit 3")
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, result.ExitCode)
	require.Equal(t, "broken\n", string(result.Stderr))
}

func TestExecRunner_Env(t *testing.T) {
	requireShell(t)

	result, err := ExecRunner{Env: []string{"ADBRUSH_TEST=yes"}}.Run(context.Background(), "sh", "-c", "printf %s \"$ADBRUSH_TEST\"")
	require.NoError(t, err)
	require.Equal(t, "yes", string(result.Stdout))
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "adbrush-definitely-missing-binary")
	require.ErrorIs(t, err, domain.ErrExecutableNotFound)
}

func TestExecRunner_DeadlineKillsProcess(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := ExecRunner{}.Run(ctx, "sh", "-c", "sleep 5")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(started), 3*time.Second)
}

func TestExecRunner_KilledBySignalIsAnError(t *testing.T) {
	requireShell(t)

	result, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "kill -9 $$")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTerminated)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, -1, result.ExitCode)
}

func TestWait_NilCommand(t *testing.T) {
	require.NoError(t, Wait(context.Background(), nil))
}
