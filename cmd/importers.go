package main

import (
	"github.com/spf13/cobra"

	"github.com/democracyclub/pollingstations-cli/internal/importer"
)

var importersDefinitions string

var importersCmd = &cobra.Command{
	Use:   "importers",
	Short: "List defined council importers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := importersDefinitions
		if path == "" {
			path = cfg.Data.Definitions
		}
		defs, err := importer.LoadDefinitions(path)
		if err != nil {
			return err
		}

		for _, def := range defs {
			kind := def.EMS
			if kind == "" {
				kind = "generic"
			}
			cmd.Printf("%s\t%s\n", def.CouncilID, kind)
		}
		cmd.Printf("%d councils defined\n", len(defs))
		return nil
	},
}

func init() {
	importersCmd.Flags().StringVar(&importersDefinitions, "definitions", "", "override path to council definitions YAML")
	rootCmd.AddCommand(importersCmd)
}
