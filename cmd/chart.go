package cmd

import (
	"github.com/spf13/cobra"

	"github.com/2767mr/tmam/internal/report"
	"github.com/2767mr/tmam/internal/shape"
)

var chartCmd = &cobra.Command{
	Use:   "chart [shape...]",
	Short: "Draw shapes as layer grids",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("targets")

		var codes []shape.Code
		for _, arg := range args {
			c, err := shape.Parse(arg)
			if err != nil {
				return err
			}
			codes = append(codes, c)
		}
		if path != "" {
			fromFile, err := report.ReadTargetsFile(path)
			if err != nil {
				return err
			}
			codes = append(codes, fromFile...)
		}
		if len(codes) == 0 {
			return errNoTargets
		}
		return report.WriteChart(cmd.OutOrStdout(), codes)
	},
}

func init() {
	chartCmd.Flags().String("targets", "", "file with one shape per line")
	rootCmd.AddCommand(chartCmd)
}
