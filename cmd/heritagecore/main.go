// Command heritagecore serves the Adara heritage portal over HTTP.
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"heritagecore/internal/adapters/httpapi"
	"heritagecore/internal/blob"
	"heritagecore/internal/config"
	"heritagecore/internal/core"
	"heritagecore/internal/identity"
	"heritagecore/internal/media"

	"github.com/gin-gonic/gin"
)

const expvarName = "heritagecore_operations"

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "heritagecore:", err)
		exitFunc(1)
	}
}

func run(ctx context.Context, opts ...config.Option) error {
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	logger := core.NewLogger(cfg.LogConfig())

	app, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.svc.Close(); cerr != nil {
			logger.Warn("close store", "error", cerr)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "media", cfg.Media.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type application struct {
	svc     *core.Service
	handler http.Handler
}

func build(ctx context.Context, cfg *config.Config, logger core.Logger) (*application, error) {
	kv, err := core.OpenKeyValueStore(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	tel, err := openTelemetry(cfg.Telemetry)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: logger}),
		core.WithMetricsRecorder(tel.metrics),
		core.WithTracer(tel.tracer),
		core.WithRoleResolver(identity.SubstringRoleResolver{Marker: cfg.Auth.AdminMarker}),
		core.WithErrorDisplay(cfg.Gate.ErrorDisplay),
		core.WithDeviceLimit(cfg.Server.MaxDevices),
	}
	if cfg.MediaEnabled() {
		store, err := blob.Open(ctx, cfg.BlobConfig())
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("open media store: %w", err)
		}
		opts = append(opts, core.WithMediaLibrary(media.NewLibrary(store, cfg.MediaOptions()...)))
	}
	svc := core.NewService(kv, opts...)

	gin.SetMode(cfg.Server.Mode)
	handler := httpapi.NewHandler(svc,
		httpapi.WithLogger(logger),
		httpapi.WithMetricsHandler(tel.handler),
	)
	return &application{svc: svc, handler: handler}, nil
}

type telemetry struct {
	metrics core.MetricsRecorder
	handler http.Handler
	tracer  core.Tracer
}

func openTelemetry(cfg config.Telemetry) (telemetry, error) {
	var tel telemetry
	switch cfg.MetricsExporter {
	case config.MetricsPrometheus:
		rec, err := core.NewPrometheusMetricsRecorder()
		if err != nil {
			return telemetry{}, fmt.Errorf("metrics: %w", err)
		}
		tel.metrics, tel.handler = rec, rec.Handler()
	case config.MetricsExpvar:
		tel.metrics, tel.handler = core.NewExpvarMetricsRecorder(expvarName), expvar.Handler()
	}
	switch cfg.TraceOutput {
	case config.TraceStdout:
		tel.tracer = core.NewJSONTracer(os.Stdout)
	case config.TraceStderr:
		tel.tracer = core.NewJSONTracer(os.Stderr)
	}
	return tel, nil
}
