package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"estimator/internal/provider"
	"estimator/internal/service"
)

func newPredictCmd() *cobra.Command {
	var (
		in     inputFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Estimate a price with the configured model",
		Long:  "Loads the model provider from MODEL_KIND / MODEL_URL / MODEL_PATH and prints the estimate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := in.request(cmd)
			if err != nil {
				return err
			}

			models := provider.NewHolder(provider.NewLoader(cfg.Model), nil)
			svc := service.NewEstimateService(models, nil, nil, cfg.Estimate)

			est, err := svc.Estimate(cmd.Context(), req.Raw())
			if err != nil {
				return err
			}
			if est.SchemaDiff != nil {
				zap.L().Info("model input was aligned to the model schema",
					zap.Strings("zero_filled", est.SchemaDiff.Missing),
					zap.Strings("dropped", est.SchemaDiff.Extra))
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), est)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Estimated price: %.0f\n", est.Price)
			fmt.Fprintf(out, "Range:           %.0f - %.0f\n", est.RangeLow, est.RangeHigh)
			fmt.Fprintf(out, "Model:           %s (%s, %d columns)\n", est.Model.Name, est.Model.Kind, est.Model.Columns)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full estimate as JSON")
	return cmd
}
