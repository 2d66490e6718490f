package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"adbrush/internal/domain"
)

// Result is the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes one-shot commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the current environment.
	Env []string
}

var _ Runner = ExecRunner{}

// ErrTerminated reports a command killed by a signal it did not trap.
var ErrTerminated = errors.New("terminated by signal")

// Run starts name, waits for it and captures both output streams.
// A non-zero exit returns the Result together with an *exec.ExitError.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	started := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", name, classifyStartError(err))
	}
	err := Wait(ctx, cmd)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{Duration: time.Since(started)}, ctxErr
	}

	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(started),
	}
	if err != nil {
		return result, fmt.Errorf("%s exited with code %d: %w", name, result.ExitCode, err)
	}
	return result, nil
}

// Wait waits for cmd to exit or ctx to end, whichever comes first.
func Wait(ctx context.Context, cmd *exec.Cmd) error {
	if cmd == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	if ctx == nil {
		return <-done
	}
	select {
	case err := <-done:
		return describeExitError(err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// describeExitError marks commands killed by a signal. A one-shot command that
// never exited on its own did not do its work, so the error is kept.
func describeExitError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == -1 {
		return fmt.Errorf("%w: %w", ErrTerminated, err)
	}
	return err
}

func classifyStartError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrExecutableNotFound, err.Error())
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, err.Error())
	}
	return err
}
