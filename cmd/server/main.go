package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/circles/internal/auth"
	"github.com/mmynk/circles/internal/config"
	"github.com/mmynk/circles/internal/lifecycle"
	"github.com/mmynk/circles/internal/metrics"
	"github.com/mmynk/circles/internal/middleware"
	"github.com/mmynk/circles/internal/notify"
	"github.com/mmynk/circles/internal/service"
	"github.com/mmynk/circles/internal/storage/sqlstore"
	"github.com/mmynk/circles/pkg/circlesv1"
	"github.com/mmynk/circles/pkg/logging"
	"github.com/mmynk/circles/pkg/tracing"
)

const serviceName = "circles"

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sender, closeSender := openSender(cfg)
	defer closeSender()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch := lifecycle.New(store, auth.ContextResolver{},
		lifecycle.WithSender(sender),
		lifecycle.WithMetrics(metrics.NewRecorder(reg)),
		lifecycle.WithTracerProvider(tp),
		lifecycle.WithInitialVacationDays(cfg.InitialVacationDays),
		lifecycle.WithNotifyTimeout(cfg.NotifyTimeout),
	)

	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	mux := http.NewServeMux()

	// Register Connect services
	path, handler := circlesv1.NewLifecycleServiceHandler(service.NewLifecycleService(orch),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(),
			middleware.RequireAuth(jwt),
			limiter.Interceptor(),
		),
	)
	mux.Handle(path, handler)

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(corsMiddleware(mux), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (*sqlstore.Store, error) {
	if cfg.DBDriver == "postgres" {
		store, err := sqlstore.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "postgres")
		return store, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := sqlstore.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
	return store, nil
}

// openSender publishes to RabbitMQ when configured and falls back to
// logging notifications otherwise.
func openSender(cfg config.Config) (notify.Sender, func()) {
	if cfg.RabbitMQURL == "" {
		return notify.LogSender{}, func() {}
	}
	sender, err := notify.NewAMQPSender(cfg.RabbitMQURL, notify.DefaultQueue)
	if err != nil {
		slog.Warn("RabbitMQ unavailable, logging notifications instead", "error", err)
		return notify.LogSender{}, func() {}
	}
	slog.Info("Notifications enabled", "queue", notify.DefaultQueue)
	return sender, func() {
		if err := sender.Close(); err != nil {
			slog.Warn("Failed to close RabbitMQ connection", "error", err)
		}
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
