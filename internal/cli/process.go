package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/court-docket/internal/bootstrap"
	"github.com/kirillkom/court-docket/internal/core/domain"
)

var errProcessFailed = errors.New("spreadsheet was not staged")

func newProcessCommand() *cobra.Command {
	var essential []string
	var courtID int64

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Translate a spreadsheet and write it to the staging area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if courtID <= 0 {
				return fmt.Errorf("--court is required")
			}
			e := envFrom(cmd)
			cfg := e.cfg
			if len(essential) > 0 {
				cfg.EssentialColumns = essential
			}

			processor, err := bootstrap.NewProcessor(cfg, e.logger)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open spreadsheet: %w", err)
			}
			defer f.Close()

			result, err := processor.ProcessSpreadsheet(cmd.Context(), domain.Actor{CourtID: courtID}, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("%w: %s", errProcessFailed, result.Error)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&courtID, "court", 0, "court whose staging area receives the file")
	cmd.Flags().StringSliceVar(&essential, "essential", nil, "canonical columns that must be present (default: ESSENTIAL_COLUMNS)")
	return cmd
}
