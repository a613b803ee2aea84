package planner

import (
	"context"
	"log/slog"

	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/execution"
	"sqlcore/pkg/execution/aggregation"
	"sqlcore/pkg/execution/sort"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/plan"
	"sqlcore/pkg/storage"
)

// physical is a built operator with its estimated output row count.
type physical struct {
	op   iterator.DbIterator
	rows int64
}

// Planner builds operator trees for one storage and configuration.
type Planner struct {
	cfg   config.Execution
	store storage.Storage
	log   *slog.Logger
}

type Option func(*Planner)

// WithJoinStrategy overrides the configured join strategy.
func WithJoinStrategy(s config.JoinStrategy) Option {
	return func(p *Planner) { p.cfg.JoinStrategy = s }
}

// WithLogger replaces the planner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.log = l }
}

func NewPlanner(cfg config.Execution, store storage.Storage, opts ...Option) *Planner {
	p := &Planner{
		cfg:   cfg,
		store: store,
		log:   logging.WithComponent("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreatePhysicalPlan maps an annotated logical plan onto operators. The
// returned iterator is not opened.
func (p *Planner) CreatePhysicalPlan(ctx context.Context, root plan.Node) (iterator.DbIterator, error) {
	if root == nil {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "plan is empty")
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	out, err := p.build(ctx, root)
	if err != nil {
		return nil, err
	}
	p.log.Debug("physical plan created", "root", root.Type().String(), "estimatedRows", out.rows)
	return out.op, nil
}

func (p *Planner) build(ctx context.Context, n plan.Node) (physical, error) {
	if err := ctx.Err(); err != nil {
		return physical{}, err
	}
	if n.OutSchema() == nil {
		return physical{}, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"%s node has no schema", n.Type()).
			WithHint("run the optimizer before physical planning")
	}

	switch node := n.(type) {
	case *plan.RootNode:
		return p.build(ctx, node.Child())

	case *plan.ScanNode:
		return p.buildScan(node)

	case *plan.SelectionNode:
		child, err := p.build(ctx, node.Child())
		if err != nil {
			return physical{}, err
		}
		op, err := execution.NewFilter(node.Qual, child.op)
		return physical{op: op, rows: child.rows}, err

	case *plan.ProjectionNode:
		child, err := p.build(ctx, node.Child())
		if err != nil {
			return physical{}, err
		}
		if node.Wildcard {
			return child, nil
		}
		op, err := execution.NewProject(node.Targets, node.OutSchema(), child.op)
		return physical{op: op, rows: child.rows}, err

	case *plan.GroupByNode:
		child, err := p.build(ctx, node.Child())
		if err != nil {
			return physical{}, err
		}
		op, err := aggregation.NewHashGroupBy(child.op, node.GroupingColumns, node.Targets, node.Having, node.OutSchema())
		return physical{op: op, rows: unknown}, err

	case *plan.SortNode:
		child, err := p.build(ctx, node.Child())
		if err != nil {
			return physical{}, err
		}
		keys, err := sort.ResolveKeys(child.op.Schema(), node.Keys)
		if err != nil {
			return physical{}, err
		}
		return p.newSort(keys, child)

	case *plan.JoinNode:
		return p.buildJoin(ctx, node)

	case *plan.StoreNode:
		child, err := p.build(ctx, node.Child())
		if err != nil {
			return physical{}, err
		}
		op, err := execution.NewStore(node.Table, p.store, child.op)
		return physical{op: op, rows: 0}, err

	case *plan.LiteralNode:
		op, err := execution.NewLiteral(node.Targets, node.OutSchema())
		return physical{op: op, rows: 1}, err

	default:
		return physical{}, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"unsupported plan node %T", n)
	}
}

func (p *Planner) buildScan(node *plan.ScanNode) (physical, error) {
	frags, err := p.store.Fragments(node.Table)
	if err != nil {
		return physical{}, err
	}

	op, err := execution.NewSeqScan(p.store, frags, node.InSchema(), node.OutSchema(), node.Qual)
	if err != nil {
		return physical{}, err
	}
	return physical{op: op, rows: storage.TotalRows(frags)}, nil
}

// newSort buffers in memory when the input is known to be small and spills
// otherwise.
func (p *Planner) newSort(keys []sort.Key, child physical) (physical, error) {
	if known(child.rows) && child.rows < p.cfg.SortInMemoryThreshold {
		op, err := sort.NewInMemorySort(keys, child.op)
		return physical{op: op, rows: child.rows}, err
	}
	op, err := sort.NewExternalSort(keys, child.op, p.cfg)
	return physical{op: op, rows: child.rows}, err
}

// sortKeys turns join key expressions into ascending sort keys over schema
// positions. ok is false when a key is not a plain column.
func sortKeys(keys []expr.EvalNode, child physical) ([]sort.Key, bool) {
	out := make([]sort.Key, len(keys))
	for i, k := range keys {
		f, isField := k.(*expr.FieldEval)
		if !isField {
			return nil, false
		}
		idx, err := child.op.Schema().ColumnIndex(f.Name())
		if err != nil {
			return nil, false
		}
		out[i] = sort.Key{Column: idx, Ascending: true}
	}
	return out, true
}
