package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wingops/debrief/internal/catalog"
	"github.com/wingops/debrief/pkg/core"
)

func cmdCatalog() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "catalog",
		Short: "Manage the unit catalog",
	}
	cmd.AddCommand(cmdCatalogSeed())
	cmd.AddCommand(cmdCatalogList())
	cmd.AddCommand(cmdCatalogGeneric())
	return cmd
}

func cmdCatalogSeed() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Insert or update catalog units from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := catalog.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.catalog.Seed(cmd.Context(), units)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d units from %s\n", n, args[0])
			return nil
		},
	}
}

func cmdCatalogList() *cobra.Command {
	var all bool
	var category string
	var cmd = &cobra.Command{
		Use:   "list",
		Short: "List catalog units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var units []core.UnitType
			if category != "" {
				cat, err := core.ParseKillCategory(category)
				if err != nil {
					return err
				}
				units, err = a.catalog.FindByKillCategory(cmd.Context(), cat)
				if err != nil {
					return err
				}
			} else {
				units, err = a.catalog.List(cmd.Context(), all)
				if err != nil {
					return err
				}
			}
			return printUnits(cmd.OutOrStdout(), units)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive units")
	cmd.Flags().StringVar(&category, "category", "", "only active units of this kill category (A2A, A2G, A2S)")
	return cmd
}

func cmdCatalogGeneric() *cobra.Command {
	return &cobra.Command{
		Use:   "generic <A2A|A2G|A2S>",
		Short: "Resolve, creating if needed, the generic unit of a kill category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := core.ParseKillCategory(args[0])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.catalog.ResolveOrCreateGeneric(cmd.Context(), cat)
			if err != nil {
				return err
			}
			return printUnits(cmd.OutOrStdout(), []core.UnitType{u})
		},
	}
}
