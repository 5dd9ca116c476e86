package main

import (
	"github.com/spf13/cobra"

	"estimator/internal/model"
	"estimator/internal/service"
)

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the form options and presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := service.LoadPresets()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				model.Options
				Presets []model.Preset `json:"presets"`
			}{model.NewOptions(), presets.List()})
		},
	}
}
