package cli

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/serpent-os/ent/pkg/history"
	"github.com/serpent-os/ent/pkg/report"
)

// checkOpts holds the flags shared by check updates and refresh.
type checkOpts struct {
	json        bool
	all         bool
	refresh     bool
	noCache     bool
	concurrency int
	deadline    time.Duration
}

func (o *checkOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "j", 0, "upstream queries in flight (default from config)")
	cmd.Flags().DurationVar(&o.deadline, "deadline", 0, "wall-clock budget for the run (default from config)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "neither read nor write the observation cache")
}

// checkCommand creates the "check" command group.
func (c *CLI) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check recipes against their upstreams",
	}
	cmd.AddCommand(c.checkUpdatesCommand())
	return cmd
}

// checkUpdatesCommand creates the "check updates" subcommand.
func (c *CLI) checkUpdatesCommand() *cobra.Command {
	var opts checkOpts
	cmd := &cobra.Command{
		Use:   "updates [path]",
		Short: "Report recipes with a newer upstream version",
		Long: `Walk the recipe tree at path (default: the working directory), query
each recipe's upstream, and list the recipes that are out of date.

Observations are cached for cache.freshness; use --refresh to bypass the
cache for this run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.runCheck(cmd.Context(), rootArg(args), opts)
			if err != nil {
				return err
			}
			if opts.json {
				return run.Report.WriteJSON(cmd.OutOrStdout())
			}
			renderReport(cmd.OutOrStdout(), run.Report, opts.all, run.Duration)
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "write the report as JSON")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "also list up-to-date and skipped recipes")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached observations")
	return cmd
}

// refreshCommand creates the "refresh" command.
func (c *CLI) refreshCommand() *cobra.Command {
	var opts checkOpts
	cmd := &cobra.Command{
		Use:   "refresh [path]",
		Short: "Re-query every upstream and rewrite the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.refresh = true
			run, err := c.runCheck(cmd.Context(), rootArg(args), opts)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), run.Report, run.Duration)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}

// runCheck runs the pipeline with config defaults overridden by flags. On
// a terminal the run is shown as a live progress view.
func (c *CLI) runCheck(ctx context.Context, root string, opts checkOpts) (history.Run, error) {
	cfg, err := c.config()
	if err != nil {
		return history.Run{}, err
	}
	logger := loggerFromContext(ctx)

	popts := cfg.PipelineOptions()
	popts.Refresh = opts.refresh
	if opts.concurrency > 0 {
		popts.Concurrency = opts.concurrency
	}
	if opts.deadline > 0 {
		popts.RunDeadline = opts.deadline
	}

	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return history.Run{}, err
	}
	defer runner.Close()

	run := func(ctx context.Context, l *log.Logger) (*report.Report, error) {
		o := popts
		o.Logger = l
		return runner.Run(ctx, root, o)
	}

	prog := newProgress(logger)
	started := time.Now()
	var rep *report.Report
	if !opts.json && isTerminal(os.Stderr) {
		rep, err = runWithProgress(ctx, logger, run)
	} else {
		rep, err = run(ctx, logger)
	}
	if err != nil {
		return history.Run{}, err
	}
	prog.done("Checked " + humanize.Comma(int64(rep.Summary.Total)) + " recipes")

	result := history.NewRun(rep, started, time.Since(started))
	c.record(ctx, result)
	return result, nil
}

// record stores run in the run history when one is configured. Failures
// are logged, not returned.
func (c *CLI) record(ctx context.Context, run history.Run) {
	logger := loggerFromContext(ctx)
	store, err := openHistory(ctx, c.cfg)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	if store == nil {
		return
	}
	defer store.Close(context.WithoutCancel(ctx))

	saved, err := store.Save(ctx, run)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Debug("recorded run", "id", saved.ID)
}
