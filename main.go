package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"sqlcore/pkg/config"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/optimizer"
	"sqlcore/pkg/plan"
	"sqlcore/pkg/planner"
	"sqlcore/pkg/storage/filestore"
	"sqlcore/pkg/storage/memstore"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath    string
	joinStrategy  string
	metricsAddr   string
	fragmentRows  int
	unknownCounts bool
	dataDir       string

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "sqlcore",
		Short:         "Plan, explain and run queries over the bundled sample database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.joinStrategy, "join-strategy", "", "override execution.join_strategy")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
	flags.IntVar(&opts.fragmentRows, "fragment-rows", 2, "rows per storage fragment of the sample tables")
	flags.BoolVar(&opts.unknownCounts, "unknown-row-counts", false, "hide fragment row counts from the planner")
	flags.StringVar(&opts.dataDir, "data-dir", "", "keep the sample tables as row files in this directory instead of in memory")

	root.AddCommand(
		newListCommand(),
		newExplainCommand(opts),
		newRunCommand(opts),
		newBenchCommand(opts),
	)
	return root
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("join-strategy") {
		cfg.Execution.JoinStrategy = config.JoinStrategy(o.joinStrategy)
		if err := cfg.Execution.Validate(); err != nil {
			return err
		}
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// workload opens the sample database. With a data directory the tables live
// in its sub directory sub (the directory itself when sub is empty); files
// carry no row counts, so plans there see unknown estimates.
func (o *options) workload(sub string) (*workload, error) {
	if o.dataDir != "" {
		store, err := filestore.New(filepath.Join(o.dataDir, sub), o.cfg.Execution.SpillCodec)
		if err != nil {
			return nil, err
		}
		return newWorkload(store, o.fragmentRows)
	}

	var storeOpts []memstore.Option
	if o.unknownCounts {
		storeOpts = append(storeOpts, memstore.WithUnknownRowCounts())
	}
	return newWorkload(memstore.New(storeOpts...), o.fragmentRows)
}

// withMetrics runs fn while serving metrics, when an address is configured.
func (o *options) withMetrics(ctx context.Context, fn func(context.Context) error) error {
	if o.metricsAddr == "" {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- metrics.Serve(ctx, o.metricsAddr) }()

	err := fn(ctx)
	cancel()
	if serveErr := <-served; err == nil {
		err = serveErr
	}
	return err
}

// compile optimizes q and builds its operator tree.
func compile(ctx context.Context, w *workload, cfg config.Execution, q query) (plan.Node, iterator.DbIterator, error) {
	logical, err := q.build(w.cat)
	if err != nil {
		return nil, nil, err
	}
	optimized, err := optimizer.Optimize(ctx, w.cat, logical)
	if err != nil {
		return nil, nil, err
	}
	op, err := planner.NewPlanner(cfg, w.store).CreatePhysicalPlan(ctx, optimized)
	if err != nil {
		return nil, nil, err
	}
	return optimized, op, nil
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the sample queries",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, q := range demoQueries() {
				fmt.Fprintf(out, "%-20s %s\n", q.name, mutedStyle.Render(q.description))
			}
		},
	}
}

func newExplainCommand(opts *options) *cobra.Command {
	var unoptimized bool

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Print the logical, optimized and physical plan of a sample query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := findQuery(args[0])
			if err != nil {
				return err
			}
			w, err := opts.workload("")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderTitle(out, q)

			if unoptimized {
				logical, err := q.build(w.cat)
				if err != nil {
					return err
				}
				annotated, err := optimizer.Annotate(cmd.Context(), w.cat, logical, nil)
				if err != nil {
					return err
				}
				renderSection(out, "logical plan", plan.Explain(annotated))
			}

			optimized, op, err := compile(cmd.Context(), w, opts.cfg.Execution, q)
			if err != nil {
				return err
			}
			renderSection(out, "optimized plan", plan.Explain(optimized))
			renderSection(out, "operators", renderOperators(op))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unoptimized, "logical", false, "also print the annotated plan before optimization")
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <query>...",
		Short: "Execute sample queries and print their rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.workload("")
			if err != nil {
				return err
			}

			return opts.withMetrics(cmd.Context(), func(ctx context.Context) error {
				out := cmd.OutOrStdout()
				for _, name := range args {
					q, err := findQuery(name)
					if err != nil {
						return err
					}
					_, op, err := compile(ctx, w, opts.cfg.Execution, q)
					if err != nil {
						return err
					}
					res, err := planner.Execute(ctx, op)
					if err != nil {
						return err
					}
					logging.WithQuery(q.name).Debug("query finished",
						"rows", len(res.Tuples), "elapsed", res.Duration)
					renderTitle(out, q)
					renderResult(out, res)
				}
				return nil
			})
		},
	}
}
