package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adbrush/internal/domain"
)

func TestFormatProgress(t *testing.T) {
	line := formatProgress(domain.Progress{
		Stats:   domain.RunStats{Attempts: 120, Successes: 118, Failures: 2},
		Rate:    39.96,
		Elapsed: 3*time.Second + 40*time.Millisecond,
	})
	assert.Contains(t, line, "00:03.0")
	assert.Contains(t, line, "taps 120")
	assert.Contains(t, line, "ok 118")
	assert.Contains(t, line, "fail 2")
	assert.Contains(t, line, "40.0/s")
	assert.NotContains(t, line, "refresh")

	line = formatProgress(domain.Progress{
		Stats:   domain.RunStats{RefreshAttempts: 4, RefreshFailures: 1},
		Elapsed: 61 * time.Second,
	})
	assert.Contains(t, line, "01:01.0")
	assert.Contains(t, line, "refresh 3/4")
}

func TestPrintSummary_JSON(t *testing.T) {
	var buf bytes.Buffer
	summary := domain.RunSummary{
		RunID:         "run-1",
		Target:        domain.TapTarget{X: 1, Y: 2},
		Attempts:      10,
		Successes:     9,
		Failures:      1,
		Elapsed:       2 * time.Second,
		Rate:          5,
		StoppedReason: domain.StopReasonDeviceLost,
		Err:           errors.New("device offline"),
	}
	require.NoError(t, printSummary(&buf, summary, true))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "run-1", payload["runId"])
	assert.Equal(t, "device_lost", payload["stoppedReason"])
	assert.Equal(t, 2.0, payload["elapsedSeconds"])
	assert.Equal(t, "device offline", payload["error"])
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(domain.RunSummary{
		RunID:           "run-2",
		Target:          domain.TapTarget{X: 540, Y: 1800},
		Attempts:        100,
		Successes:       100,
		RefreshAttempts: 2,
		Elapsed:         4 * time.Second,
		Rate:            25,
		StoppedReason:   domain.StopReasonRequested,
	})
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "(540, 1800)")
	assert.Contains(t, out, "100 ok")
	assert.Contains(t, out, "25.0/s")
	assert.Contains(t, out, "by request")
	assert.Contains(t, out, "refresh")
}

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDevices(&buf, nil, true))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	require.NoError(t, printDevices(&buf, []domain.Device{{Serial: "emu-1", State: "device"}, {Serial: "R58", State: "unauthorized"}}, false))
	assert.Contains(t, buf.String(), "emu-1\tdevice")
	assert.Contains(t, buf.String(), "R58\tunauthorized")
}
