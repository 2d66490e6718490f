package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adbrush/internal/domain"
)

func TestFormBuilder_SkipsFlagsSetOnCommandLine(t *testing.T) {
	cmd := newRunCmd(&cliOptions{})
	require.NoError(t, cmd.ParseFlags(nil))
	builder := newFormBuilder(cmd)
	newFormInputs(domain.DefaultProfile()).register(builder)
	// x, y, threads, min-delay, max-delay, refresh-interval and the confirm.
	assert.Len(t, builder.fields, 7)

	cmd = newRunCmd(&cliOptions{})
	require.NoError(t, cmd.ParseFlags([]string{"--preset", "buy", "--threads", "3"}))
	builder = newFormBuilder(cmd)
	newFormInputs(domain.DefaultProfile()).register(builder)
	assert.Len(t, builder.fields, 4)
}

func TestFormInputs_Apply(t *testing.T) {
	cmd := newRunCmd(&cliOptions{})
	require.NoError(t, cmd.ParseFlags([]string{"--threads", "9"}))

	profile := domain.DefaultProfile()
	profile.Target.Preset = "old"
	inputs := newFormInputs(profile)
	inputs.x = "540"
	inputs.y = "1800"
	inputs.threads = "2"
	inputs.minDelay = "15"
	inputs.maxDelay = "0.1s"
	inputs.refreshInterval = "5s"

	require.NoError(t, inputs.apply(cmd, &profile))
	assert.Equal(t, domain.CoordinateTarget(540, 1800), profile.Target)
	assert.Equal(t, domain.DefaultThreads, profile.Dispatch.Threads, "flag-set fields keep their value")
	assert.Equal(t, 15*time.Millisecond, profile.Dispatch.MinDelay)
	assert.Equal(t, 100*time.Millisecond, profile.Dispatch.MaxDelay)
	assert.Equal(t, 5*time.Second, profile.Dispatch.RefreshInterval)
}

func TestFormInputs_ApplyRejectsGarbage(t *testing.T) {
	cmd := newRunCmd(&cliOptions{})
	require.NoError(t, cmd.ParseFlags(nil))

	profile := domain.DefaultProfile()
	inputs := newFormInputs(profile)
	inputs.x = "left"
	inputs.minDelay = "soon"

	err := inputs.apply(cmd, &profile)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "x:")
	assert.Contains(t, err.Error(), "min-delay:")
}

func TestNewFormInputs_PrefillsFromProfile(t *testing.T) {
	profile := domain.DefaultProfile()
	profile.Target = domain.CoordinateTarget(10, 20)
	profile.Dispatch.RefreshInterval = 3 * time.Second

	inputs := newFormInputs(profile)
	assert.Equal(t, "10", inputs.x)
	assert.Equal(t, "20", inputs.y)
	assert.Equal(t, "5", inputs.threads)
	assert.Equal(t, "10ms", inputs.minDelay)
	assert.Equal(t, "50ms", inputs.maxDelay)
	assert.Equal(t, "3s", inputs.refreshInterval)
	assert.True(t, inputs.confirmed)
}
