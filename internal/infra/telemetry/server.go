package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"adbrush/internal/domain"
)

const serverShutdownTimeout = 2 * time.Second

// HTTPServerOptions selects the endpoints served next to a run.
type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	EnableHealthz bool
	Health        *HealthTracker
	Registry      prometheus.Gatherer
	// OnListen receives the bound address, useful with port 0.
	OnListen func(addr string)
}

// StartHTTPServer binds the listener, then serves /metrics and /healthz until
// ctx is done. Bind failures are returned before anything is served.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.EnableMetrics && !opts.EnableHealthz {
		return nil
	}
	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("observability listen %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           newObservabilityMux(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	bound := listener.Addr().String()
	if opts.OnListen != nil {
		opts.OnListen(bound)
	}
	logger.Info("observability server listening",
		zap.String("addr", bound),
		zap.Bool("metrics", opts.EnableMetrics),
		zap.Bool("healthz", opts.EnableHealthz),
	)

	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("observability server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("observability server shutdown", zap.Error(err))
		return err
	}
	logger.Debug("observability server stopped", zap.String("addr", bound))
	return nil
}

func newObservabilityMux(opts HTTPServerOptions) *http.ServeMux {
	mux := http.NewServeMux()
	if opts.EnableMetrics {
		gatherer := opts.Registry
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if opts.EnableHealthz {
		mux.Handle("GET /healthz", healthHandler(opts.Health))
	}
	return mux
}

// healthHandler answers 503 once the run lost its device, 200 otherwise.
func healthHandler(tracker *HealthTracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		report := HealthReport{Status: "ok", State: domain.RunStateIdle}
		if tracker != nil {
			report = tracker.Report()
		}
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
}
