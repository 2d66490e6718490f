package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adbrush/internal/domain"
)

func TestStartHTTPServer_Metrics(t *testing.T) {
	addr := freeAddr(t)
	registry := prometheus.NewRegistry()
	NewPrometheusMetrics(registry).ObserveTap(domain.TapOutcomeSuccess, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          addr,
			EnableMetrics: true,
			Registry:      registry,
		}, zap.NewNop())
	}()

	waitForHTTPStatus(t, "http://"+addr+"/metrics", http.StatusOK, false)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "adbrush_taps_total")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestStartHTTPServer_PortInUse(t *testing.T) {
	listener := mustListen(t)
	defer listener.Close()

	err := StartHTTPServer(context.Background(), HTTPServerOptions{
		Addr:          listener.Addr().String(),
		EnableMetrics: true,
		Registry:      prometheus.NewRegistry(),
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observability listen")
}

func TestStartHTTPServer_ReportsBoundAddress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bound := make(chan string, 1)
	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          "127.0.0.1:0",
			EnableHealthz: true,
			OnListen:      func(addr string) { bound <- addr },
		}, zap.NewNop())
	}()

	var addr string
	select {
	case addr = <-bound:
	case err := <-errChan:
		t.Skipf("listen failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not bind")
	}
	require.NotEqual(t, "127.0.0.1:0", addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, domain.RunStateIdle, report.State)

	post, err := http.Post("http://"+addr+"/healthz", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)

	cancel()
	require.NoError(t, <-errChan)
}

func TestStartHTTPServer_DisabledReturnsImmediately(t *testing.T) {
	require.NoError(t, StartHTTPServer(context.Background(), HTTPServerOptions{}, nil))
}

func TestStartHTTPServer_Healthz(t *testing.T) {
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewHealthTracker()
	tracker.SetState(domain.RunStateRunning)

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          addr,
			EnableHealthz: true,
			Health:        tracker,
		}, zap.NewNop())
	}()

	waitForHTTPStatus(t, "http://"+addr+"/healthz", http.StatusOK, true)

	tracker.SetState(domain.RunStateStopped)
	tracker.SetStopReason(domain.StopReasonDeviceLost)
	waitForHTTPStatus(t, "http://"+addr+"/healthz", http.StatusServiceUnavailable, true)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestHealthTracker_ReportsAttachedRun(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tracker := NewHealthTracker()
	tracker.now = func() time.Time { return started.Add(2 * time.Second) }
	tracker.Attach("run-7", "emu-1", domain.TapTarget{X: 5, Y: 6}, func() domain.RunStats {
		return domain.RunStats{Attempts: 12, Successes: 10, Failures: 2, StartedAt: started}
	})
	tracker.SetState(domain.RunStateRunning)

	report := tracker.Report()
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "run-7", report.RunID)
	assert.Equal(t, "emu-1", report.Device)
	require.NotNil(t, report.Target)
	assert.Equal(t, domain.TapTarget{X: 5, Y: 6}, *report.Target)
	require.NotNil(t, report.Stats)
	assert.Equal(t, uint64(12), report.Stats.Attempts)
	assert.InDelta(t, 5.0, report.Rate, 0.001)
}

func TestHealthTracker_NewRunClearsReason(t *testing.T) {
	tracker := NewHealthTracker()
	require.Equal(t, domain.RunStateIdle, tracker.Report().State)

	tracker.SetStopReason(domain.StopReasonDeviceLost)
	require.Equal(t, "device_lost", tracker.Report().Status)

	tracker.SetState(domain.RunStateRunning)
	report := tracker.Report()
	require.Equal(t, "ok", report.Status)
	require.Empty(t, report.Reason)
}

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	return listener
}

func freeAddr(t *testing.T) string {
	t.Helper()
	listener := mustListen(t)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func waitForHTTPStatus(t *testing.T, url string, status int, expectJSON bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != status {
			return false
		}
		if expectJSON {
			var report HealthReport
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				return false
			}
			if status == http.StatusOK && report.Status != "ok" {
				return false
			}
		}
		return true
	}, 2*time.Second, 25*time.Millisecond)
}
