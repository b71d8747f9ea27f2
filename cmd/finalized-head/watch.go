package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	watcher "github.com/mobazha/finalized-watcher"
	"github.com/mobazha/finalized-watcher/config"
	"github.com/mobazha/finalized-watcher/metrics"
	"github.com/mobazha/finalized-watcher/plugin"
	"github.com/mobazha/finalized-watcher/structs"
)

func newWatchCommand(v *viper.Viper, envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keeps printing the finalized block number as it advances.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(v, *envFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logrus.Info("Connecting to blockchain...")
			w, err := watcher.NewWsBasedWatcher(ctx, cfg.Endpoint, watcher.WatcherConfig{
				IntervalForPollingNewBlock: cfg.Watch.Interval,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			out := cmd.OutOrStdout()
			w.RegisterReportPlugin(plugin.NewReportPlugin(func(report *structs.NumberReport) {
				if err := printReport(out, report); err != nil {
					logrus.Errorf("failed to print report: %v", err)
				}
			}))

			if cfg.Metrics.Address != "" {
				m := metrics.NewMetrics(cfg.Metrics.Address)
				if err := m.Start(); err != nil {
					return err
				}
				defer stopMetrics(m)
				w.RegisterReportPlugin(m.Plugin())
			}

			logrus.Infof("watching finalized head every %s", cfg.Watch.Interval)
			return w.RunTillExit()
		},
	}

	cmd.Flags().Duration("interval", 0, "poll interval (default "+config.DefaultWatchInterval+")")
	cmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")
	_ = v.BindPFlag(config.KeyWatchInterval, cmd.Flags().Lookup("interval"))
	_ = v.BindPFlag(config.KeyMetricsAddr, cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func stopMetrics(m *metrics.Metrics) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		logrus.Warnf("failed to stop metrics server: %v", err)
	}
}
