package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wingops/debrief/pkg/core"
)

func cmdPool() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "pool",
		Short: "Manage the selectable units of a mission debrief",
	}
	cmd.AddCommand(cmdPoolAdd())
	cmd.AddCommand(cmdPoolGeneric())
	cmd.AddCommand(cmdPoolRemove())
	cmd.AddCommand(cmdPoolList())
	return cmd
}

func cmdPoolAdd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <missionDebriefID> <unitTypeID>...",
		Short: "Add catalog units to the pool",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, unitTypeID := range args[1:] {
				e, err := a.pool.Add(cmd.Context(), args[0], unitTypeID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.KillCategory, e.UnitTypeID)
			}
			return nil
		},
	}
}

func cmdPoolGeneric() *cobra.Command {
	return &cobra.Command{
		Use:   "generic <missionDebriefID> <A2A|A2G|A2S>",
		Short: "Add the generic unit of a kill category to the pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := core.ParseKillCategory(args[1])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.pool.AddGeneric(cmd.Context(), args[0], cat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.KillCategory, e.UnitTypeID)
			return nil
		},
	}
}

func cmdPoolRemove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <missionDebriefID> <unitTypeID>",
		Short: "Remove a unit from the pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.pool.Remove(cmd.Context(), args[0], args[1])
		},
	}
}

func cmdPoolList() *cobra.Command {
	return &cobra.Command{
		Use:   "list <missionDebriefID>",
		Short: "List the pool by kill category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pool.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, cat := range core.KillCategories {
				fmt.Fprintf(w, "%s (%d)\n", cat, len(p[cat]))
				if err := printUnits(w, p[cat]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
