package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2767mr/tmam/internal/builddb"
	"github.com/2767mr/tmam/internal/report"
	"github.com/2767mr/tmam/internal/runlog"
	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/store"
	"github.com/2767mr/tmam/internal/tmam"
)

var showCmd = &cobra.Command{
	Use:   "show [shape...]",
	Short: "Print what earlier runs recorded",
	Long: `Show reads the outputs of earlier solve and search runs: the run report,
the builds file and the construction database, plus the SQLite store when
--sqlite is given. For every shape it prints the stored solution and build.`,
	RunE: runShowCmd,
}

func init() {
	showCmd.Flags().String("sqlite", "", "SQLite database written by solve or search")
	showCmd.Flags().Int("up-to", -1, "with --sqlite, list every stored build up to this cost")
	rootCmd.AddCommand(showCmd)
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	codes := make([]shape.Code, 0, len(args))
	for _, arg := range args {
		c, err := shape.Parse(arg)
		if err != nil {
			return err
		}
		codes = append(codes, c)
	}

	out := cmd.OutOrStdout()
	if err := showLastRun(out, cfg.Output.ReportPath); err != nil {
		return err
	}

	solutions, err := readSolutions(cfg.Output.BuildsPath, log)
	if err != nil {
		return err
	}
	entries, err := readEntries(cfg.Output.DBPath, log)
	if err != nil {
		return err
	}

	var db *store.Store
	if path, _ := cmd.Flags().GetString("sqlite"); path != "" {
		if db, err = store.Open(ctx, path); err != nil {
			return err
		}
		defer db.Close()
		if err := showWins(ctx, out, db); err != nil {
			return err
		}
	}

	for _, c := range codes {
		fmt.Fprintf(out, "%s %s\n", c.Hex(), c.Full())
		if res, ok := solutions[c]; ok {
			fmt.Fprintf(out, "  solution %s\n", formatSolution(res))
		}
		if int(c) < len(entries) && entries[c].Known() {
			e := entries[c]
			fmt.Fprintf(out, "  build    %s\n", formatBuild(e.Op, e.Code1, e.Code2))
		}
		if db != nil {
			if err := showStored(ctx, out, db, c); err != nil {
				return err
			}
		}
	}

	if upTo, _ := cmd.Flags().GetInt("up-to"); upTo >= 0 && db != nil {
		records, err := db.BuildsUpTo(ctx, upTo)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(out, "%s cost %d %s alt %d\n", rec.Code.Hex(), rec.Cost, formatBuild(rec.Op, rec.Code1, rec.Code2), rec.Alt)
		}
	}
	return nil
}

func showLastRun(out io.Writer, path string) error {
	if path == "" {
		return nil
	}
	run, history, err := runlog.Load(path)
	if err != nil || run == nil {
		return err
	}

	took := run.Duration().Round(time.Millisecond)
	switch run.Kind {
	case runlog.KindSearch:
		fmt.Fprintf(out, "last run: search, %d known, max cost %d, %d iterations, %s\n",
			run.Known, run.MaxCost, run.Iterations, took)
	default:
		fmt.Fprintf(out, "last run: solve, %d of %d solved, %d iterations, %s\n",
			run.Solved, run.Targets, run.Iterations, took)
	}
	if len(history) > 0 {
		fmt.Fprintf(out, "earlier runs: %d\n", len(history))
	}
	return nil
}

func showWins(ctx context.Context, out io.Writer, db *store.Store) error {
	counts, err := db.StrategyCounts(ctx)
	if err != nil || len(counts) == 0 {
		return err
	}
	var sb strings.Builder
	sb.WriteString("wins:")
	for _, name := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(&sb, " %s %d", name, counts[name])
	}
	fmt.Fprintln(out, sb.String())
	return nil
}

func showStored(ctx context.Context, out io.Writer, db *store.Store, c shape.Code) error {
	res, ok, err := db.Solution(ctx, c)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "  stored   %s %s\n", formatSolution(res), res.Strategy)
	}

	rec, ok, err := db.Build(ctx, c)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "  cost     %d %s alt %d\n", rec.Cost, formatBuild(rec.Op, rec.Code1, rec.Code2), rec.Alt)
	}
	return nil
}

// readSolutions loads the builds file by target. A file that was never
// written gives no solutions.
func readSolutions(path string, log logrus.FieldLogger) (map[shape.Code]tmam.Result, error) {
	if path == "" {
		return nil, nil
	}
	results, err := report.ReadBuildsFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("file", path).Debug("no builds file")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	byTarget := make(map[shape.Code]tmam.Result, len(results))
	for _, res := range results {
		byTarget[res.Target] = res
	}
	return byTarget, nil
}

func readEntries(path string, log logrus.FieldLogger) ([]builddb.Entry, error) {
	if path == "" {
		return nil, nil
	}
	entries, err := builddb.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("file", path).Debug("no construction database")
		return nil, nil
	}
	return entries, err
}

func formatSolution(res tmam.Result) string {
	hexes := make([]string, len(res.Parts))
	for i, p := range res.Parts {
		hexes[i] = p.Hex()
	}
	return "[" + strings.Join(hexes, ",") + "] " + res.Order
}

func formatBuild(op search.Op, code1, code2 shape.Code) string {
	switch op {
	case search.OpPrim:
		return "prim"
	case search.OpStack:
		return fmt.Sprintf("stack %s %s", code1.Hex(), code2.Hex())
	}
	return fmt.Sprintf("%s %s", op, code1.Hex())
}
