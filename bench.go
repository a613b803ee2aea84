package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sqlcore/pkg/config"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/planner"
)

var benchStrategies = []config.JoinStrategy{
	config.JoinNestedLoop,
	config.JoinBlockNestedLoop,
	config.JoinHash,
	config.JoinMerge,
	config.JoinAuto,
}

func newBenchCommand(opts *options) *cobra.Command {
	var repeat int

	cmd := &cobra.Command{
		Use:   "bench <query>",
		Short: "Run a sample query under every join strategy concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := findQuery(args[0])
			if err != nil {
				return err
			}

			return opts.withMetrics(cmd.Context(), func(ctx context.Context) error {
				results, err := bench(ctx, opts, q, repeat)
				if err != nil {
					return err
				}
				renderTitle(cmd.OutOrStdout(), q)
				renderBench(cmd.OutOrStdout(), results)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&repeat, "repeat", 10, "executions per strategy")
	return cmd
}

// bench runs q repeat times under each join strategy. Every strategy gets its
// own copy of the sample database so writing queries do not interfere. A
// failing strategy is reported in its result; only cancellation aborts the
// whole run.
func bench(ctx context.Context, opts *options, q query, repeat int) ([]benchResult, error) {
	results := make([]benchResult, len(benchStrategies))
	log := logging.WithComponent("bench")

	g, ctx := errgroup.WithContext(ctx)
	for i, strategy := range benchStrategies {
		i, strategy := i, strategy
		g.Go(func() error {
			r := benchResult{strategy: string(strategy)}
			defer func() { results[i] = r }()

			w, err := opts.workload(string(strategy))
			if err != nil {
				r.err = err
				return nil
			}
			cfg := opts.cfg.Execution
			cfg.JoinStrategy = strategy

			start := time.Now()
			for n := 0; n < repeat; n++ {
				_, op, err := compile(ctx, w, cfg, q)
				if err != nil {
					r.err = err
					break
				}
				res, err := planner.Execute(ctx, op)
				if err != nil {
					r.err = err
					break
				}
				r.rows = len(res.Tuples)
			}
			r.duration = time.Since(start)

			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Debug("strategy finished", "strategy", strategy, "elapsed", r.duration, "err", r.err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
