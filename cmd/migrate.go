package main

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/lostfound/internal/config"
	"github.com/Vovarama1992/lostfound/internal/infra"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Create the lost_items and found_items tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			zl, sync, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			pool, err := infra.NewPgxPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := infra.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			zl.Log(logger.LogEntry{
				Level:   "info",
				Message: "schema is up to date",
			})
			return nil
		},
	}
}
