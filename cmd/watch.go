package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2767mr/tmam/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <targets-file>",
	Short: "Solve a targets file again whenever it changes",
	Long: `Watch solves every target in the file, then waits for the file (or the
catalog) to change and solves it again, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatchCmd,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	targetsPath := args[0]

	paths := []string{targetsPath}
	if cfg.CatalogPath != "" {
		paths = append(paths, cfg.CatalogPath)
	}
	w, err := watch.New(paths, log)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	out := cmd.OutOrStdout()
	for {
		// the catalog is reloaded too, it may be the file that changed
		cat, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}
		targets, err := collectTargets(nil, targetsPath, cat)
		if err != nil {
			log.WithError(err).Warn("cannot read targets")
		} else if _, err := solveTargets(ctx, cfg, cat, log, targets, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "# watching %s\n", targetsPath)

		select {
		case <-ctx.Done():
			return nil
		case file, ok := <-w.Changes:
			if !ok {
				return nil
			}
			log.WithField("file", file).Info("change detected, solving again")
		}
	}
}
