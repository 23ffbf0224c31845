package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/court-docket/internal/infrastructure/repository/postgres"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(db *sql.DB) error {
				if err := postgres.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				version, err := postgres.MigrationVersion(cmd.Context(), db)
				if err != nil {
					return err
				}
				envFrom(cmd).logger.Info("migrations_applied", "version", version)
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(db *sql.DB) error {
				version, err := postgres.MigrationVersion(cmd.Context(), db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

func withDB(cmd *cobra.Command, fn func(db *sql.DB) error) error {
	db, err := postgres.OpenDB(envFrom(cmd).cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	return fn(db)
}
