package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/kafka"
	"flightsurety/internal/platform/kafka/consumer"
	"flightsurety/internal/platform/postgres"
	audit "flightsurety/pkg/platform/audit"
	auditconsumer "flightsurety/pkg/platform/audit/consumer"
	auditpostgres "flightsurety/pkg/platform/audit/store/postgres"
)

// newAuditConsumeCmd materializes the audit stream. Compliance and security
// events are stored in PostgreSQL when storage.driver is postgres; everything
// else is logged.
func (c *cli) newAuditConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-consume",
		Short: "Consume the audit topic and persist retained categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := c.cfg, c.logger
			if !cfg.Kafka.Enabled() {
				return fmt.Errorf("kafka.brokers must be set to consume audit events")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logHandler := auditconsumer.NewLogHandler(log)
			router := auditconsumer.NewRouter(log, logHandler)

			if cfg.Storage.Driver == config.StoragePostgres {
				db, err := postgres.Open(ctx, postgres.Config{Driver: cfg.Storage.PostgresDriver, DSN: cfg.Storage.DSN})
				if err != nil {
					return err
				}
				defer db.Close()
				store, err := auditpostgres.New(ctx, db)
				if err != nil {
					return err
				}
				retained := newAuditPostgresTx(db, store)
				router.Register(audit.CategoryCompliance, retained)
				router.Register(audit.CategorySecurity, retained)
			} else {
				log.Warn("storage.driver is not postgres; audit events are logged only")
			}

			client, err := kafka.NewConsumer(kafkaConfig(cfg.Kafka))
			if err != nil {
				return err
			}
			defer client.Close()

			log.Info("consuming audit events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group)
			if err := consumer.New(client, router, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
