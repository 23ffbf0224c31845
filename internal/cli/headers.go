package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/court-docket/internal/config"
)

func newHeadersCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "headers [header...]",
		Short: "List the header dictionary, or translate the given headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := config.LoadHeaderDictionary(envFrom(cmd).cfg.HeaderDictionaryPath)
			if err != nil {
				return fmt.Errorf("load header dictionary: %w", err)
			}

			if len(args) > 0 {
				tr := dict.Translate(args)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"mapping":    tr.Mapping(),
						"unknown":    tr.Unknown,
						"collisions": tr.Collisions,
					})
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for i, original := range tr.Originals {
					fmt.Fprintf(tw, "%s\t%s\n", original, tr.Canonical[i])
				}
				return tw.Flush()
			}

			entries := dict.Entries()
			if asJSON {
				out := make(map[string][]string)
				for _, entry := range entries {
					out[entry.Canonical] = append(out[entry.Canonical], entry.Header)
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, entry := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", entry.Canonical, entry.Header)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
