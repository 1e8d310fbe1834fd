package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"landedcost/internal/cli"
)

func analyzeCmd(g *globalFlags) *cobra.Command {
	var (
		in      cli.AnalyzeInput
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a savings analysis locally from YAML products and a static rate table",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := g.format()
			if err != nil {
				return err
			}
			logger := zap.NewNop()
			if verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
				defer logger.Sync()
			}
			res, err := cli.AnalyzeLocal(cmd.Context(), in, logger)
			if err != nil {
				return err
			}
			return cli.Write(os.Stdout, format, res)
		},
	}
	cmd.Flags().StringVarP(&in.ProductsPath, "products", "p", "", "YAML file with a products list")
	cmd.Flags().StringVarP(&in.ScenarioPath, "scenario", "s", "", "YAML file with a scenario configuration")
	cmd.Flags().StringVarP(&in.RatesPath, "rates", "r", "", "YAML rate table (defaults to rates.static_file)")
	cmd.Flags().StringVarP(&in.ConfigPath, "config", "c", "", "Server config to take cost model parameters from")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log engine progress to stderr")
	_ = cmd.MarkFlagRequired("products")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}
