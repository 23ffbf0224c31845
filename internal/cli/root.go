// Package cli provides the docketctl operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/court-docket/internal/config"
	"github.com/kirillkom/court-docket/internal/observability/logging"
)

// Version is set at build time.
var Version = "dev"

type envKey struct{}

type env struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd creates the docketctl command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     "docketctl",
		Short:   "Operate the court docket pipeline",
		Long:    "docketctl processes spreadsheets, imports staged files, seeds courts and runs migrations without the HTTP API.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg := config.Load()
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			logger := logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "docketctl", logLevel)
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{cfg: cfg, logger: logger}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default: LOG_LEVEL or info)")

	rootCmd.AddCommand(newProcessCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newHeadersCommand())
	rootCmd.AddCommand(newCourtCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func envFrom(cmd *cobra.Command) *env {
	if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
		return e
	}
	return &env{cfg: config.Load(), logger: slog.Default()}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
