package main

import (
	"github.com/spf13/cobra"

	"estimator/internal/features"
	"estimator/internal/model"
)

func newEncodeCmd() *cobra.Command {
	var (
		in      inputFlags
		columns []string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the encoded feature record",
		Long: "Encodes the given apartment attributes into the 15 model columns. With --columns the record " +
			"is also aligned to that column list: unknown columns are zero-filled, others dropped.",
		Example: "  estimator encode --total-area 65 --rooms 2 --property-type Квартира --metro Центр\n" +
			"  estimator encode --preset premium-3-room --columns total_area,metro_encoder,floor",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := in.request(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), encodeResult(req.Raw(), columns, cmd.Flags().Changed("columns")))
		},
	}

	in.register(cmd)
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "expected model columns, comma separated")
	return cmd
}

// encodeResult encodes raw and, when aligned is set, reconciles it with
// columns.
func encodeResult(raw features.RawInput, columns []string, aligned bool) model.EncodeResult {
	rec := features.Encode(raw)
	if !aligned {
		return model.EncodeResult{Features: rec, ModelInput: rec}
	}
	if columns == nil {
		columns = []string{}
	}

	res := model.EncodeResult{
		Features:   rec,
		ModelInput: features.Reconcile(rec, columns),
		Columns:    columns,
	}
	if diff := features.Diff(rec, columns); !diff.Empty() {
		res.SchemaDiff = &diff
	}
	return res
}
