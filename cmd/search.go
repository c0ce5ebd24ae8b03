package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2767mr/tmam/internal/builddb"
	"github.com/2767mr/tmam/internal/report"
	"github.com/2767mr/tmam/internal/runlog"
	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the cheapest build of every reachable shape",
	Long: `Search expands the seed shapes by cost, applying every turn, cut and stack,
until no shape within the cost limit is left.

The build of every shape is written to the construction database and the
cheapest shape of every canonical key is drawn in the chart.`,
	Args: cobra.NoArgs,
	RunE: runSearchCmd,
}

func init() {
	searchCmd.Flags().Int("max-cost", 0, "highest cost to expand")
	searchCmd.Flags().String("db", "", "construction database to write")
	searchCmd.Flags().String("chart", "", "chart of the cheapest build per key")
	searchCmd.Flags().String("sqlite", "", "also store builds in this SQLite database")

	_ = viper.BindPFlag("search.max_cost", searchCmd.Flags().Lookup("max-cost"))
	_ = viper.BindPFlag("output.db_path", searchCmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("output.chart_path", searchCmd.Flags().Lookup("chart"))
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("sqlite"); p != "" {
		cfg.Output.SQLitePath = p
	}
	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	searchCfg, err := cfg.SearchConfig()
	if err != nil {
		return err
	}

	s, err := search.New(searchCfg, cat, log)
	if err != nil {
		return err
	}
	started := time.Now()
	stats, err := s.Run(ctx)
	if err != nil {
		return err
	}
	completed := time.Now()
	records := s.Records()

	if path := cfg.Output.DBPath; path != "" {
		if err := builddb.WriteFile(path, records); err != nil {
			return err
		}
	}
	best := s.BestForKeys()
	if path := cfg.Output.ChartPath; path != "" {
		codes := make([]shape.Code, len(best))
		for i, rec := range best {
			codes[i] = rec.Code
		}
		if err := report.WriteChartFile(path, codes); err != nil {
			return err
		}
	}
	if path := cfg.Output.ReportPath; path != "" {
		if err := runlog.Save(path, runlog.FromSearch(started, completed, stats)); err != nil {
			return err
		}
	}
	if path := cfg.Output.SQLitePath; path != "" {
		db, err := store.Open(ctx, path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveBuilds(ctx, records); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, rec := range best {
		fmt.Fprintf(out, "%s %-9s cost %d alt %d\n", rec.Code.Hex(), rec.Op, rec.Cost, rec.Alt)
	}

	log.WithFields(logrus.Fields{
		"known":       stats.Known,
		"keys":        len(best),
		"max_cost":    stats.MaxCost,
		"capped":      stats.Capped,
		"regressions": stats.Regressions,
		"duration":    completed.Sub(started).Round(time.Millisecond),
	}).Info("search finished")
	return nil
}
