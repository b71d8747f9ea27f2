package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	watcher "github.com/mobazha/finalized-watcher"
	"github.com/mobazha/finalized-watcher/config"
	"github.com/mobazha/finalized-watcher/logging"
	"github.com/mobazha/finalized-watcher/structs"
)

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	var envFile string

	cmd := &cobra.Command{
		Use:           "finalized-head",
		Short:         "Prints the latest finalized block number, by header walk and by state query.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(v, envFile)
			if err != nil {
				return err
			}

			return printFinalized(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "env file to load (default is ./.env when present)")
	flags.String("endpoint", "", "node WebSocket endpoint, overrides "+config.EnvVarEndpoint)
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = v.BindPFlag(config.KeyEndpoint, flags.Lookup("endpoint"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	cmd.Flags().Bool("strict", false, "fail when the two methods disagree")
	_ = v.BindPFlag(config.KeyStrict, cmd.Flags().Lookup("strict"))

	cmd.AddCommand(newWatchCommand(v, &envFile))

	return cmd
}

// setup loads and validates the config before anything touches the network.
func setup(v *viper.Viper, envFile string) (*config.Config, error) {
	cfg, err := config.Load(v, envFile)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printFinalized(ctx context.Context, out io.Writer, cfg *config.Config) error {
	logrus.Info("Connecting to blockchain...")

	w, err := watcher.NewWsBasedWatcher(ctx, cfg.Endpoint)
	if err != nil {
		return err
	}
	defer w.Close()

	report, err := w.Retrieve(ctx)
	if err != nil {
		return err
	}

	if err := printReport(out, report); err != nil {
		return err
	}

	if cfg.Strict && !report.Consistent() {
		return watcher.ErrNumberMismatch
	}
	return nil
}

func printReport(out io.Writer, report *structs.NumberReport) error {
	for _, block := range report.Blocks() {
		if _, err := fmt.Fprintf(out, "Finalized Block Number (%s): %d\n", block.Method.Label(), block.Number); err != nil {
			return err
		}
	}
	return nil
}
