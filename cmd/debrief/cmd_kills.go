package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/wingops/debrief/internal/killbuffer"
	"github.com/wingops/debrief/pkg/core"
)

func cmdKills() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "kills",
		Short: "Edit the kill ledger of a flight debrief",
	}
	cmd.AddCommand(cmdKillsList())
	cmd.AddCommand(cmdKillsAdd())
	cmd.AddCommand(cmdKillsRemove())
	cmd.AddCommand(cmdKillsMove())
	cmd.AddCommand(cmdKillsStatus())
	return cmd
}

func printBuffer(w io.Writer, b *killbuffer.Buffer) error {
	callsigns := make(map[string]string)
	for _, r := range b.Roster() {
		callsigns[r.PilotID] = r.Callsign
	}
	name := func(pilotID string) string {
		if c, ok := callsigns[pilotID]; ok {
			return c
		}
		return pilotID
	}

	tw := newTable(w, "PILOT", "UNIT", "KILL", "COUNT")
	for _, l := range b.Lines() {
		row(tw, name(l.PilotID), l.DisplayName, l.KillCategory, l.KillCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w, "PILOT", "STATUS", "AIRCRAFT")
	statuses := b.Statuses()
	for _, r := range b.Roster() {
		st := statuses[r.PilotID]
		row(tw, r.Callsign, st.PilotValue(), st.AircraftValue())
	}
	return tw.Flush()
}

func printSave(w io.Writer, res killbuffer.SaveResult) {
	if !res.Changed() {
		fmt.Fprintln(w, "nothing to save")
		return
	}
	fmt.Fprintf(w, "saved: %d deleted, %d written, %d status only\n", res.Deleted, res.Upserted, res.StatusOnly)
}

func cmdKillsList() *cobra.Command {
	return &cobra.Command{
		Use:   "list <flightDebriefID>",
		Short: "Show kills and statuses of a flight debrief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.openBuffer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printBuffer(cmd.OutOrStdout(), b)
		},
	}
}

func cmdKillsAdd() *cobra.Command {
	count := 1
	var cmd = &cobra.Command{
		Use:   "add <flightDebriefID> <pilotID> <unitTypeID>",
		Short: "Credit a pilot with kills of a unit type",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			u, err := a.catalog.FindByID(ctx, args[2])
			if err != nil {
				return err
			}
			b, err := a.openBuffer(ctx, args[0])
			if err != nil {
				return err
			}
			for range count {
				b.Add(args[1], u)
			}
			res, err := b.Save(ctx, "")
			if err != nil {
				return err
			}
			printSave(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", count, "number of kills to add")
	return cmd
}

func cmdKillsRemove() *cobra.Command {
	count := 1
	var all bool
	var cmd = &cobra.Command{
		Use:   "remove <flightDebriefID> <pilotID> <unitTypeID>",
		Short: "Take kills of a unit type off a pilot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			b, err := a.openBuffer(ctx, args[0])
			if err != nil {
				return err
			}
			line, ok := b.Find(args[1], args[2])
			if !ok {
				return fmt.Errorf("pilot %s has no kills of unit %s", args[1], args[2])
			}
			if all {
				err = b.Remove(line.ID)
			} else {
				for range count {
					var removed bool
					if removed, err = b.Decrement(line.ID); err != nil || removed {
						break
					}
				}
			}
			if err != nil {
				return err
			}
			res, err := b.Save(ctx, "")
			if err != nil {
				return err
			}
			printSave(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", count, "number of kills to remove")
	cmd.Flags().BoolVar(&all, "all", false, "remove every kill of the unit")
	return cmd
}

func cmdKillsMove() *cobra.Command {
	return &cobra.Command{
		Use:   "move <flightDebriefID> <fromPilotID> <unitTypeID> <toPilotID>",
		Short: "Reassign a pilot's kills of a unit type to another pilot",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			b, err := a.openBuffer(ctx, args[0])
			if err != nil {
				return err
			}
			line, ok := b.Find(args[1], args[2])
			if !ok {
				return fmt.Errorf("pilot %s has no kills of unit %s", args[1], args[2])
			}
			if _, err := b.Move(line.ID, args[3]); err != nil {
				return err
			}
			res, err := b.Save(ctx, "")
			if err != nil {
				return err
			}
			printSave(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func cmdKillsStatus() *cobra.Command {
	var pilotStatus, aircraftStatus string
	var cmd = &cobra.Command{
		Use:   "status <flightDebriefID> <pilotID>",
		Short: "Set a pilot's status and aircraft status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pilotStatus == "" && aircraftStatus == "" {
				return fmt.Errorf("set --pilot and/or --aircraft")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			b, err := a.openBuffer(ctx, args[0])
			if err != nil {
				return err
			}
			if pilotStatus != "" {
				p, err := core.ParsePilotStatus(pilotStatus)
				if err != nil {
					return err
				}
				b.SetPilotStatus(args[1], p)
			}
			if aircraftStatus != "" {
				s, err := core.ParseAircraftStatus(aircraftStatus)
				if err != nil {
					return err
				}
				b.SetAircraftStatus(args[1], s)
			}
			res, err := b.Save(ctx, "")
			if err != nil {
				return err
			}
			printSave(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&pilotStatus, "pilot", "", "alive, mia, kia or unaccounted")
	cmd.Flags().StringVar(&aircraftStatus, "aircraft", "", "recovered, damaged, destroyed, down or unaccounted")
	return cmd
}
