package domain

import (
	"errors"
	"fmt"
	"time"
)

// Validate rejects combinations that cannot drive a run.
func (c DispatchConfig) Validate() error {
	var problems []error
	if c.Threads < 1 {
		problems = append(problems, fmt.Errorf("threads must be >= 1, got %d", c.Threads))
	}
	if c.MinDelay < 0 {
		problems = append(problems, fmt.Errorf("minDelay must be >= 0, got %s", c.MinDelay))
	}
	if c.MaxDelay < c.MinDelay {
		problems = append(problems, fmt.Errorf("maxDelay %s is below minDelay %s", c.MaxDelay, c.MinDelay))
	}
	if c.MaxDelay > MaxDelayCeiling {
		problems = append(problems, fmt.Errorf("maxDelay must be <= %s, got %s", MaxDelayCeiling, c.MaxDelay))
	}
	if c.RefreshInterval < 0 {
		problems = append(problems, fmt.Errorf("refreshInterval must be >= 0, got %s", c.RefreshInterval))
	}
	if c.TapOffset < 0 {
		problems = append(problems, fmt.Errorf("tapOffset must be >= 0, got %d", c.TapOffset))
	}
	if c.TapOffset > MaxTapOffset {
		problems = append(problems, fmt.Errorf("tapOffset must be <= %d, got %d", MaxTapOffset, c.TapOffset))
	}
	if c.MaxTapsPerSecond < 0 {
		problems = append(problems, fmt.Errorf("maxTapsPerSecond must be >= 0, got %g", c.MaxTapsPerSecond))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
}

// DefaultDispatchConfig returns the settings used when the operator gives none.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Threads:  DefaultThreads,
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
	}
}

// Jittered reports whether delays vary between taps.
func (c DispatchConfig) Jittered() bool {
	return c.MaxDelay > c.MinDelay
}

// Rate returns the tap rate for a count over an elapsed window, clamping tiny windows.
func Rate(count uint64, elapsed time.Duration) float64 {
	if elapsed < time.Millisecond {
		elapsed = time.Millisecond
	}
	return float64(count) / elapsed.Seconds()
}
