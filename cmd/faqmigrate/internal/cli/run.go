package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	faqmigrate "github.com/goliatone/go-faqmigrate"
	"github.com/spf13/cobra"
)

func (a *app) newRunCommand() *cobra.Command {
	var mode, format string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one migration batch with the stored settings",
		Example: `  faqmigrate run --mode dry
  faqmigrate run --mode apply --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := faqmigrate.Mode(strings.ToLower(strings.TrimSpace(mode)))
			if !m.Valid() {
				return fmt.Errorf("invalid mode %q: expected dry or apply", mode)
			}
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				result, err := module.Run(ctx, m)
				return a.report(cmd, result, err, format)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(faqmigrate.ModeDry), "dry computes changes only, apply writes them")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|markdown|html|json")
	return cmd
}

func (a *app) newRunScheduledCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "run-scheduled",
		Short: "Run one apply batch now with scheduled semantics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				result, err := module.RunScheduledNow(ctx)
				return a.report(cmd, result, err, format)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|markdown|html|json")
	return cmd
}

// report prints a partial result before surfacing the run error.
func (a *app) report(cmd *cobra.Command, result *faqmigrate.RunResult, runErr error, format string) error {
	if errors.Is(runErr, faqmigrate.ErrRunInProgress) {
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("Another migration run is in progress; try again later."))
		return runErr
	}
	if result != nil {
		if err := writeResult(cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
	}
	return runErr
}

func (a *app) newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Rewind the migration checkpoint to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				if err := module.ResetProgress(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Progress reset. Next run starts from the beginning."))
				return nil
			})
		},
	}
}

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Process scheduled runs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			cmd.SetContext(ctx)
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Serving scheduled migration runs"))
				return module.Serve(ctx)
			})
		},
	}
}
