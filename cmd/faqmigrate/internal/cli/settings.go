package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	faqmigrate "github.com/goliatone/go-faqmigrate"
	"github.com/spf13/cobra"
)

func (a *app) newSettingsCommand() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored migration settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings merged with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				current, err := module.Settings(ctx)
				if err != nil {
					return err
				}
				writeSettings(cmd.OutOrStdout(), current)
				return nil
			})
		},
	}

	var (
		postType, status, interval string
		batchSize, maxPerRun       int
		scheduleEnabled            bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update settings; unset flags keep their stored values",
		Example: `  faqmigrate settings set --batch-size 50 --max-per-run 500
  faqmigrate settings set --schedule --interval daily`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				current, err := module.Settings(ctx)
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("post-type") {
					current.PostType = postType
				}
				if flags.Changed("status") {
					current.Status = status
				}
				if flags.Changed("batch-size") {
					current.BatchSize = batchSize
				}
				if flags.Changed("max-per-run") {
					current.MaxPerRun = maxPerRun
				}
				if flags.Changed("schedule") {
					current.ScheduleEnabled = scheduleEnabled
				}
				if flags.Changed("interval") {
					current.ScheduleInterval = interval
				}
				updated, err := module.UpdateSettings(ctx, current)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Settings saved."))
				writeSettings(cmd.OutOrStdout(), updated)
				return nil
			})
		},
	}
	flags := set.Flags()
	flags.StringVar(&postType, "post-type", "", `post type to scan, or "any"`)
	flags.StringVar(&status, "status", "", `post status to scan, or "any"`)
	flags.IntVar(&batchSize, "batch-size", 0, "ids fetched per page (1-500)")
	flags.IntVar(&maxPerRun, "max-per-run", 0, "documents processed per run (1-5000)")
	flags.BoolVar(&scheduleEnabled, "schedule", false, "enable scheduled apply runs")
	flags.StringVar(&interval, "interval", "", "schedule interval: fifteen_minutes|hourly|twice_daily|daily")

	settingsCmd.AddCommand(show, set)
	return settingsCmd
}

func (a *app) newScheduleCommand() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect the recurring migration schedule",
	}
	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print whether a scheduled run is pending and when",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withModule(cmd, func(ctx context.Context, module *faqmigrate.Module) error {
				status, err := module.ScheduleStatus(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !status.Enabled {
					fmt.Fprintln(out, color.YellowString("Schedule: disabled"))
					return nil
				}
				fmt.Fprintln(out, color.GreenString("Schedule: enabled (%s)", status.Interval))
				fmt.Fprintf(out, "Next run: %s\n", status.NextRun.Format(time.RFC3339))
				return nil
			})
		},
	})
	return scheduleCmd
}

func writeSettings(w io.Writer, s faqmigrate.Settings) {
	schedule := "off"
	if s.ScheduleEnabled {
		schedule = "on"
	}
	fmt.Fprintf(w, "Post type:   %s\n", s.PostType)
	fmt.Fprintf(w, "Status:      %s\n", s.Status)
	fmt.Fprintf(w, "Batch size:  %d\n", s.BatchSize)
	fmt.Fprintf(w, "Max per run: %d\n", s.MaxPerRun)
	fmt.Fprintf(w, "Schedule:    %s (%s)\n", schedule, s.ScheduleInterval)
}
