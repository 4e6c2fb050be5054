package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/wingops/debrief/internal/config"
	"github.com/wingops/debrief/internal/influx"
	"github.com/wingops/debrief/pkg/core"
)

func cmdSummary() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "summary",
		Short: "Mission debrief totals",
	}
	cmd.AddCommand(cmdSummaryShow())
	cmd.AddCommand(cmdSummaryDetail())
	return cmd
}

func cmdSummaryShow() *cobra.Command {
	var asJSON, publish bool
	var cmd = &cobra.Command{
		Use:   "show <missionDebriefID>",
		Short: "Compute the mission summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			s, err := a.summary.GetMissionSummary(ctx, args[0])
			if err != nil {
				return err
			}

			if publish {
				p := influx.NewPublisher(config.GetInfluxConfig(), DBLogger, backupPath())
				if err := p.Connect(ctx); err != nil {
					return err
				}
				defer p.Close()
				if err := p.Publish(s, time.Now()); err != nil {
					return err
				}
				Logger.InfoContext(ctx, "Published mission summary", "missionDebrief", s.MissionDebriefID, "toServer", p.IsValid)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			return printSummary(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&publish, "publish", false, "also write the summary to InfluxDB")
	return cmd
}

func cmdSummaryDetail() *cobra.Command {
	var asJSON bool
	var cmd = &cobra.Command{
		Use:   "detail <missionDebriefID> <bucket>",
		Short: "List the pilots, kills or ratings behind a bucket, e.g. pilot:kia or performance:UNSAT:tactics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := core.ParseBucket(args[1])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			groups, err := a.expander.Expand(cmd.Context(), args[0], bucket)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), groups)
			}
			return printGroups(cmd.OutOrStdout(), bucket, groups)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
