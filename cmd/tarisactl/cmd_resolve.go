package main

import (
	"github.com/spf13/cobra"

	"github.com/emmanuelfore/tarisa-sub001/internal/api/dto"
	"github.com/emmanuelfore/tarisa-sub001/internal/bootstrap"
)

var resolveFlags struct {
	lat    float64
	lng    float64
	region string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a coordinate or declared region to a jurisdiction",
	RunE:  runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.Float64Var(&resolveFlags.lat, "lat", 0, "Latitude in decimal degrees")
	f.Float64Var(&resolveFlags.lng, "lng", 0, "Longitude in decimal degrees")
	f.StringVar(&resolveFlags.region, "region", "", "Declared region name")
	resolveCmd.MarkFlagsRequiredTogether("lat", "lng")
}

func runResolve(cmd *cobra.Command, _ []string) error {
	var lat, lng *float64
	if cmd.Flags().Changed("lat") {
		lat, lng = &resolveFlags.lat, &resolveFlags.lng
	}
	return withContainer(cmd.Context(), func(c *bootstrap.Container) error {
		res, err := c.Intake.Resolve(lat, lng, resolveFlags.region)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.NewResolveResponse(res))
	})
}
