package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2767mr/tmam/internal/catalog"
	"github.com/2767mr/tmam/internal/config"
	"github.com/2767mr/tmam/internal/report"
	"github.com/2767mr/tmam/internal/runlog"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/store"
	"github.com/2767mr/tmam/internal/tmam"
)

var errNoTargets = errors.New("no targets: pass shapes, --targets or a catalog")

var solveCmd = &cobra.Command{
	Use:   "solve [shape...]",
	Short: "Split shapes into parts and a stacking order",
	Long: `Solve finds, for every target, a list of disjoint parts and a stacking
order that rebuilds the target when the parts are dropped in that order.

Targets are hex codes or short keys. Without targets every key of the
catalog is solved.`,
	RunE: runSolveCmd,
}

func init() {
	solveCmd.Flags().String("targets", "", "file with one target per line")
	solveCmd.Flags().StringSlice("strategy", nil, "strategies to run, in order")
	solveCmd.Flags().Int("iteration-cap", 0, "stacking attempts per target (0 keeps the configured cap)")
	solveCmd.Flags().String("sqlite", "", "also store results in this SQLite database")

	_ = viper.BindPFlag("solver.strategies", solveCmd.Flags().Lookup("strategy"))
	rootCmd.AddCommand(solveCmd)
}

func runSolveCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("iteration-cap"); n > 0 {
		cfg.Solver.IterationCap = n
	}
	if p, _ := cmd.Flags().GetString("sqlite"); p != "" {
		cfg.Output.SQLitePath = p
	}
	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}

	targetsPath, _ := cmd.Flags().GetString("targets")
	targets, err := collectTargets(args, targetsPath, cat)
	if err != nil {
		return err
	}

	_, err = solveTargets(cmd.Context(), cfg, cat, log, targets, cmd.OutOrStdout())
	return err
}

func collectTargets(args []string, path string, cat *catalog.Catalog) ([]shape.Code, error) {
	var targets []shape.Code
	for _, arg := range args {
		c, err := shape.Parse(arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, c)
	}
	if path != "" {
		fromFile, err := report.ReadTargetsFile(path)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}
	if len(targets) == 0 {
		targets = cat.Keys()
	}
	if len(targets) == 0 {
		return nil, errNoTargets
	}
	return targets, nil
}

// solveTargets runs one batch and writes every configured output. The
// builds are also printed to out.
func solveTargets(ctx context.Context, cfg config.Config, cat *catalog.Catalog, log *logrus.Logger, targets []shape.Code, out io.Writer) (tmam.Batch, error) {
	solverCfg, err := cfg.SolverConfig()
	if err != nil {
		return tmam.Batch{}, err
	}
	solver, err := tmam.New(solverCfg, log)
	if err != nil {
		return tmam.Batch{}, err
	}

	for _, t := range targets {
		if !cat.Allows(t) {
			log.WithField("target", t.Hex()).Warn("target is not in the catalog")
		}
	}

	started := time.Now()
	batch, err := solver.SolveAll(ctx, targets)
	if err != nil {
		return batch, err
	}
	completed := time.Now()

	for _, t := range batch.Failed {
		log.WithField("target", t.Hex()).Warn(tmam.ErrNotFound)
	}
	if err := report.WriteBuilds(out, batch.Results); err != nil {
		return batch, err
	}

	if path := cfg.Output.BuildsPath; path != "" {
		if err := report.WriteBuildsFile(path, batch.Results); err != nil {
			return batch, err
		}
	}
	if path := cfg.Output.ReportPath; path != "" {
		if err := runlog.Save(path, runlog.FromBatch(started, completed, len(targets), batch)); err != nil {
			return batch, err
		}
	}
	if path := cfg.Output.SQLitePath; path != "" {
		if err := saveSolutions(ctx, path, batch.Results); err != nil {
			return batch, err
		}
	}

	log.WithFields(logrus.Fields{
		"targets":  len(targets),
		"solved":   len(batch.Results),
		"failed":   len(batch.Failed),
		"duration": completed.Sub(started).Round(time.Millisecond),
	}).Info("solve finished")
	return batch, nil
}

func saveSolutions(ctx context.Context, path string, results []tmam.Result) error {
	db, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveSolutions(ctx, results); err != nil {
		return fmt.Errorf("save solutions: %w", err)
	}
	return nil
}
