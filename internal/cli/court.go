package cli

import (
	"database/sql"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/court-docket/internal/infrastructure/repository/postgres"
)

func newCourtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "court",
		Short: "Manage courts",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an active court",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(db *sql.DB) error {
				court, err := postgres.NewCourtRepository(db).CreateCourt(cmd.Context(), strings.TrimSpace(args[0]), description)
				if err != nil {
					return err
				}
				envFrom(cmd).logger.Info("court_created", "court_id", court.ID, "name", court.Name)
				return printJSON(cmd.OutOrStdout(), court)
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "free-form court description")

	cmd.AddCommand(create)
	return cmd
}
