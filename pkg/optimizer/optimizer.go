package optimizer

import (
	"context"
	"time"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/plan"
)

// A rule is a transformation applied to a whole plan tree. It returns the
// new root and whether anything changed.
type rule interface {
	name() string
	apply(ctx context.Context, root plan.Node) (plan.Node, bool, error)
}

// annotate assigns schemas, pruning columns when prune is set.
type annotate struct {
	cat   catalog.Catalog
	prune bool
}

func (r *annotate) name() string {
	if r.prune {
		return "projection_pushdown"
	}
	return "annotate"
}

func (r *annotate) apply(ctx context.Context, root plan.Node) (plan.Node, bool, error) {
	var needed *TargetSet
	if r.prune {
		needed = NewTargetSet()
	}
	before := plan.Explain(root)
	out, err := Annotate(ctx, r.cat, root, needed)
	if err != nil {
		return nil, false, err
	}
	return out, plan.Explain(out) != before, nil
}

var _ rule = (*annotate)(nil)

// predicatePushdown moves Selection conjuncts towards the scans.
type predicatePushdown struct{}

func (r *predicatePushdown) name() string { return "predicate_pushdown" }

func (r *predicatePushdown) apply(_ context.Context, root plan.Node) (plan.Node, bool, error) {
	before := plan.Explain(root)
	out, err := pushSelections(root)
	if err != nil {
		return nil, false, err
	}
	return out, plan.Explain(out) != before, nil
}

var _ rule = (*predicatePushdown)(nil)

// optimization is a named group of rules applied until they stop changing
// the plan.
type optimization struct {
	name          string
	rules         []rule
	maxIterations int
}

func newOptimization(name string, maxIterations int) *optimization {
	return &optimization{name: name, maxIterations: maxIterations}
}

func (o *optimization) withRules(rules ...rule) *optimization {
	o.rules = append(o.rules, rules...)
	return o
}

func (o *optimization) optimize(ctx context.Context, root plan.Node) (plan.Node, error) {
	log := logging.WithComponent("optimizer")

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		metrics.OptimizerPasses.WithLabelValues(o.name).Inc()

		anyChanged := false
		for _, r := range o.rules {
			out, changed, err := r.apply(ctx, root)
			if err != nil {
				return nil, err
			}
			root = out
			if changed {
				anyChanged = true
				log.Debug("rule applied", "pass", o.name, "rule", r.name(), "iteration", iteration)
			}
		}
		if !anyChanged {
			break
		}
	}
	return root, nil
}

type optimizer struct {
	passes []*optimization
}

func newOptimizer(cat catalog.Catalog) *optimizer {
	return &optimizer{passes: []*optimization{
		newOptimization("annotate", 1).withRules(&annotate{cat: cat}),
		newOptimization("predicate_pushdown", 3).withRules(&predicatePushdown{}),
		newOptimization("projection_pushdown", 1).withRules(&annotate{cat: cat, prune: true}),
	}}
}

func (o *optimizer) optimize(ctx context.Context, root plan.Node) (plan.Node, error) {
	for _, pass := range o.passes {
		var err error
		if root, err = pass.optimize(ctx, root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Optimize annotates root, pushes predicates down and prunes unneeded
// columns. The input tree is rewritten in place; the returned node is the
// new root.
func Optimize(ctx context.Context, cat catalog.Catalog, root plan.Node) (plan.Node, error) {
	start := time.Now()
	out, err := newOptimizer(cat).optimize(ctx, root)
	if err != nil {
		logging.WithComponent("optimizer").Debug("optimization failed", "error", err)
		return nil, err
	}
	logging.WithComponent("optimizer").Debug("plan optimized",
		"duration", time.Since(start),
		"depth", plan.Depth(out))
	return out, nil
}
