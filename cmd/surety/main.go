// Command surety runs the FlightSurety registry: the HTTP facade, the
// scenario simulator, the audit consumer, and developer tooling.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/logger"
)

type cli struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	c := &cli{}
	if err := c.newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "surety",
		Short:         "FlightSurety flight-delay insurance registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./surety.yaml or $SURETY_CONFIG_PATH)")

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newApplyCmd())
	cmd.AddCommand(c.newTokenCmd())
	cmd.AddCommand(c.newAuditConsumeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (c *cli) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(c.logger)
	return nil
}
