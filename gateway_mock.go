package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-payments/gateway"
)

func gatewayMockCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "gateway-mock",
		Short: "Run a simulated bank speaking the gateway wire protocol",
		Long: `Serve POST /transfers backed by the in-process bank simulator.

Point the API at it with gateway.mode=http and gateway.endpoint=http://<addr>/transfers.
Declined accounts and the amount limit come from gateway.mock in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			bank, err := newMockBank(cfg.Gateway.Mock)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l.Info("Starting simulated bank...", zap.Strings("declined_accounts", cfg.Gateway.Mock.DeclinedAccounts))
			srv := &http.Server{
				Addr:              addr,
				Handler:           gateway.MockHandler(bank),
				ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			}
			return listen(ctx, srv, l)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	return cmd
}
