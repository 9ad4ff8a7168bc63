package main

import (
	"errors"
	"fmt"

	"github.com/senyabanana/equipment-rental/internal/router/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

type migrateDirection string

const (
	migrateUp   migrateDirection = "up"
	migrateDown migrateDirection = "down"
)

func migrateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(migrateUp), string(migrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := migrateDirection(args[0])
			if direction != migrateUp && direction != migrateDown {
				return fmt.Errorf("unknown migration direction: %s", args[0])
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := runDBMigration(cfg.MigrationURL, cfg.PostgresConn, direction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied: %s\n", direction)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", ".", "directory containing app.env")
	return cmd
}

func runDBMigration(migrationURL string, dbSource string, direction migrateDirection) error {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		return fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer migration.Close()

	if direction == migrateDown {
		err = migration.Down()
	} else {
		err = migration.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate %s: %w", direction, err)
	}
	return nil
}
