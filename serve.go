package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-payments/api"
	"go-payments/config"
	"go-payments/gateway"
	"go-payments/metrics"
	"go-payments/payments"
	"go-payments/store"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the payments API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, l)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	l.Info("Starting payments service...", zap.String("version", Version), zap.String("addr", cfg.Server.Addr))
	defer func() { l.Info("Done.") }()

	st, err := openStore(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			l.Error("Failed close store.", zap.Error(err))
		}
	}()

	gw, err := newGateway(cfg.Gateway, l)
	if err != nil {
		return err
	}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		m,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := payments.NewService(st, gw,
		payments.WithRecorder(m),
		payments.WithLogger(l.Named("payments")),
		payments.WithGatewayTimeout(cfg.Gateway.Timeout),
	)

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.Options{
		Service:  svc,
		Health:   st,
		Auth:     cfg.Auth,
		CORS:     cfg.CORS,
		Logger:   l.Named("http"),
		Observer: m,
		Metrics:  metrics.Handler(reg, l.Named("metrics")),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	return listen(ctx, srv, l)
}

// listen serves until ctx is cancelled, then drains in-flight requests
func listen(ctx context.Context, srv *http.Server, l *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		l.Info("Listening...", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "Serve error")
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "Failed graceful shutdown")
	}
	l.Info("Server stopped.")
	return nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, l *zap.Logger) (store.Store, error) {
	st, err := store.Open(ctx, cfg, l.Named("store"))
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	return st, nil
}

func newGateway(cfg config.GatewayConfig, l *zap.Logger) (gateway.Client, error) {
	if cfg.Mode == "http" {
		l.Info("Using bank gateway.", zap.String("endpoint", cfg.Endpoint))
		return gateway.NewHTTPClient(cfg.Endpoint, cfg.Token, cfg.Timeout, l), nil
	}
	bank, err := newMockBank(cfg.Mock)
	if err != nil {
		return nil, err
	}
	l.Warn("Using simulated bank; no funds move.")
	return bank, nil
}

func newMockBank(cfg config.MockGatewayConfig) (*gateway.MockClient, error) {
	var limit decimal.NullDecimal
	if cfg.MaxAmount != "" {
		d, err := decimal.NewFromString(cfg.MaxAmount)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed parse gateway.mock.max_amount %q", cfg.MaxAmount)
		}
		limit = decimal.NewNullDecimal(d)
	}
	return gateway.NewMockClient(cfg.DeclinedAccounts, limit), nil
}
