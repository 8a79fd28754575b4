package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/plantdesk/dms/internal/logging"
	"github.com/plantdesk/dms/internal/repository"
	"github.com/plantdesk/dms/internal/service"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Run the stock alert scanner and notification dispatcher",
	Long: `Sweeps stock levels for shortages on an interval, queues alerts and drains
pending notifications to the log sink. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		levelOverridden := cmd.Flags().Changed("log-level")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withRuntime(ctx, func(rt *runtime) error {
			// dispatched notifications surface as info log lines; the quiet
			// CLI default level would eat them
			if !levelOverridden {
				logging.InitTo(os.Stderr, "dmsctl", rt.cfg.LogLevel, rt.cfg.AppEnv)
			}
			return runNotify(ctx, rt)
		})
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(ctx context.Context, rt *runtime) error {
	floor, err := decimal.NewFromString(rt.cfg.WalletLowFloor)
	if err != nil {
		return fmt.Errorf("parse wallet floor %q: %w", rt.cfg.WalletLowFloor, err)
	}

	notifications := repository.NewNotificationRepository(rt.db)
	alerts := service.NewAlertService(
		notifications,
		repository.NewStockRepository(rt.db),
		rt.cfg.StockLowThreshold,
		rt.cfg.StockCriticalThreshold,
		floor,
	)

	interval := time.Duration(rt.cfg.NotifierIntervalS) * time.Second
	notifier := service.NewNotifier(notifications, service.LogSink{}, slog.Default(), interval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		notifier.Start(ctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := alerts.ScanStock(ctx); err != nil {
					slog.Warn("stock scan failed", "error", err)
				}
			}
		}
	})
	return g.Wait()
}
