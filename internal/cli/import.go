package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/usecase"
	"github.com/kirillkom/court-docket/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/court-docket/internal/infrastructure/staging"
	"github.com/kirillkom/court-docket/internal/infrastructure/storage/localfs"
)

var errImportFailed = errors.New("import did not complete")

func newImportCommand() *cobra.Command {
	var courtID, userID int64

	cmd := &cobra.Command{
		Use:   "import <staged-file>",
		Short: "Import a staged file into a court's cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if courtID <= 0 {
				return fmt.Errorf("--court is required")
			}
			e := envFrom(cmd)

			stagedFiles, err := localfs.New(e.cfg.StagingPath)
			if err != nil {
				return fmt.Errorf("init staging storage: %w", err)
			}
			db, err := postgres.OpenDB(e.cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			importer := usecase.NewImportCasesUseCase(staging.NewStore(stagedFiles), postgres.NewCaseRepository(db), e.logger)
			result, err := importer.Import(cmd.Context(), domain.Actor{CourtID: courtID, UserID: userID}, args[0])
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return errImportFailed
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&courtID, "court", 0, "court that owns the imported cases")
	cmd.Flags().Int64Var(&userID, "user", 0, "user recorded as the creator of new cases")
	return cmd
}
