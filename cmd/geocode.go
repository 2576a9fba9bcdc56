package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/democracyclub/pollingstations-cli/internal/geocoder"
)

var geocodePointOnly bool

var geocodeCmd = &cobra.Command{
	Use:   "geocode <postcode>",
	Short: "Geocode a postcode through the source waterfall",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		postcode := args[0]

		resolver, closeRefdata, err := initResolver(ctx)
		if err != nil {
			return err
		}
		defer closeRefdata()

		if geocodePointOnly {
			pt, err := resolver.GeocodePointOnly(ctx, postcode)
			if err != nil {
				return err
			}
			cmd.Printf("source=%s lon=%f lat=%f\n", pt.Source, pt.Lon, pt.Lat)
			return nil
		}

		result, err := resolver.Geocode(ctx, postcode)
		if errors.Is(err, geocoder.ErrMultipleJurisdictions) {
			cmd.Println("postcode straddles council boundaries")
			return nil
		}
		if err != nil {
			return err
		}
		cmd.Printf("source=%s lon=%f lat=%f\n", result.Source, result.Lon, result.Lat)

		st, closeStore, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		council, err := geocoder.GetCouncil(ctx, st, result)
		if err != nil {
			cmd.Println("no council found for point")
			return nil
		}
		cmd.Printf("council=%s name=%q\n", council.ID, council.Name)
		return nil
	},
}

func init() {
	geocodeCmd.Flags().BoolVar(&geocodePointOnly, "point-only", false, "skip the council lookup")
	rootCmd.AddCommand(geocodeCmd)
}
