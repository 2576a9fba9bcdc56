package main

import (
	"github.com/spf13/cobra"

	"github.com/democracyclub/pollingstations-cli/internal/routing"
)

var routeCmd = &cobra.Command{
	Use:   "route <postcode>",
	Short: "Resolve the lookup outcome for a postcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, closeStore, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		endpoint, err := routing.NewRouter(st).Route(ctx, args[0])
		if err != nil {
			return err
		}

		cmd.Printf("outcome=%s", endpoint.Outcome)
		if endpoint.AddressSlug != "" {
			cmd.Printf(" address=%s", endpoint.AddressSlug)
		}
		if endpoint.Postcode != "" {
			cmd.Printf(" postcode=%s", endpoint.Postcode)
		}
		cmd.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
}
