package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/michaelpento.lv/arbscan/cmd/bot"
	"github.com/michaelpento.lv/arbscan/utils"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
	"github.com/michaelpento.lv/arbscan/utils/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scanOnce    bool
	metricsAddr string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the configured factories for arbitrage opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		m := metrics.NewScanMetrics(reg)
		if metricsAddr != "" {
			sysMon, err := monitor.NewSystemMonitor(ctx, reg, 15*time.Second, log)
			if err != nil {
				return fmt.Errorf("failed to create system monitor: %w", err)
			}
			defer func() {
				sysMon.LogSummary()
				_ = sysMon.Cleanup()
			}()
			go serveMetrics(ctx, metricsAddr, reg, log)
		}

		ledger, client, err := dialLedger(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer client.Close()

		rep, closeReporter, err := buildReporter(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeReporter()

		scanner, err := bot.New(cfg, ledger, rep, m, log)
		if err != nil {
			return fmt.Errorf("failed to create scanner: %w", err)
		}

		if scanOnce {
			if err := scanner.Initialize(ctx); err != nil {
				return err
			}
			_, err := scanner.RunCycle(ctx)
			return err
		}

		err = scanner.Run(ctx)
		if errors.Is(err, context.Canceled) {
			log.Info("Shutting down gracefully...")
			return nil
		}
		return err
	},
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Metrics server failed", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanOnce, "once", false, "run a single scan cycle and exit")
	scanCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}
