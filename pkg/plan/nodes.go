package plan

import (
	"strings"

	"sqlcore/pkg/expr"
)

// RootNode marks the top of a query plan.
type RootNode struct {
	unary
}

func NewRoot(child Node) *RootNode {
	return &RootNode{unary{child: child}}
}

func (n *RootNode) Type() NodeType { return RootType }
func (n *RootNode) Clone() Node    { return &RootNode{n.cloneUnary()} }

func (n *RootNode) PlanString() *PlanString {
	return newPlanString(n)
}

func (n *RootNode) String() string { return Explain(n) }

// ProjectionNode evaluates a target list per input row. A wildcard projection
// passes every input column through.
type ProjectionNode struct {
	unary
	Targets  []expr.Target
	Wildcard bool
}

func NewProjection(targets []expr.Target, child Node) *ProjectionNode {
	return &ProjectionNode{unary: unary{child: child}, Targets: targets}
}

func NewWildcardProjection(child Node) *ProjectionNode {
	return &ProjectionNode{unary: unary{child: child}, Wildcard: true}
}

func (n *ProjectionNode) Type() NodeType { return ProjectionType }

func (n *ProjectionNode) Clone() Node {
	return &ProjectionNode{unary: n.cloneUnary(), Targets: expr.CloneTargets(n.Targets), Wildcard: n.Wildcard}
}

func (n *ProjectionNode) PlanString() *PlanString {
	ps := newPlanString(n)
	if n.Wildcard {
		ps.AddExplain("targets: *")
	} else {
		ps.AddExplain("targets: " + targetList(n.Targets))
	}
	return ps
}

func (n *ProjectionNode) String() string { return Explain(n) }

// SelectionNode filters rows by a boolean qualifier.
type SelectionNode struct {
	unary
	Qual expr.EvalNode
}

func NewSelection(qual expr.EvalNode, child Node) *SelectionNode {
	return &SelectionNode{unary: unary{child: child}, Qual: qual}
}

func (n *SelectionNode) Type() NodeType { return SelectionType }

func (n *SelectionNode) Clone() Node {
	return &SelectionNode{unary: n.cloneUnary(), Qual: cloneExpr(n.Qual)}
}

func (n *SelectionNode) PlanString() *PlanString {
	return newPlanString(n).AddExplain("search condition: " + n.Qual.String())
}

func (n *SelectionNode) String() string { return Explain(n) }

// JoinKind is the join semantics of a JoinNode.
type JoinKind int

const (
	CrossJoin JoinKind = iota
	InnerJoin
)

func (k JoinKind) String() string {
	if k == InnerJoin {
		return "INNER"
	}
	return "CROSS"
}

// JoinNode combines an outer and an inner input. Without targets the output
// is the outer columns followed by the inner columns.
type JoinNode struct {
	BaseNode
	Kind    JoinKind
	Qual    expr.EvalNode
	Targets []expr.Target

	outer Node
	inner Node
}

func NewJoin(kind JoinKind, outer, inner Node) *JoinNode {
	return &JoinNode{Kind: kind, outer: outer, inner: inner}
}

func (n *JoinNode) Type() NodeType      { return JoinType }
func (n *JoinNode) Outer() Node         { return n.outer }
func (n *JoinNode) Inner() Node         { return n.inner }
func (n *JoinNode) SetOuter(outer Node) { n.outer = outer }
func (n *JoinNode) SetInner(inner Node) { n.inner = inner }
func (n *JoinNode) Children() []Node    { return []Node{n.outer, n.inner} }
func (n *JoinNode) HasQual() bool       { return n.Qual != nil }

// SetQual installs a join condition. A cross join given a condition becomes
// an inner join.
func (n *JoinNode) SetQual(qual expr.EvalNode) {
	n.Qual = qual
	if qual != nil && n.Kind == CrossJoin {
		n.Kind = InnerJoin
	}
}

func (n *JoinNode) Clone() Node {
	c := &JoinNode{
		BaseNode: n.BaseNode,
		Kind:     n.Kind,
		Qual:     cloneExpr(n.Qual),
		Targets:  expr.CloneTargets(n.Targets),
	}
	if n.outer != nil {
		c.outer = n.outer.Clone()
	}
	if n.inner != nil {
		c.inner = n.inner.Clone()
	}
	return c
}

func (n *JoinNode) PlanString() *PlanString {
	ps := newPlanString(n).AppendTitle("(" + n.Kind.String() + ")")
	if n.Qual != nil {
		ps.AddExplain("Join Cond: " + n.Qual.String())
	}
	if len(n.Targets) > 0 {
		ps.AddExplain("target list: " + targetList(n.Targets))
	}
	return ps
}

func (n *JoinNode) String() string { return Explain(n) }

// GroupByNode groups rows by GroupingColumns and evaluates Targets, which may
// contain aggregate calls, once per group. Having filters the groups.
type GroupByNode struct {
	unary
	GroupingColumns []*expr.FieldEval
	Targets         []expr.Target
	Having          expr.EvalNode
}

func NewGroupBy(grouping []*expr.FieldEval, targets []expr.Target, child Node) *GroupByNode {
	return &GroupByNode{unary: unary{child: child}, GroupingColumns: grouping, Targets: targets}
}

func (n *GroupByNode) Type() NodeType { return GroupByType }

func (n *GroupByNode) Clone() Node {
	keys := make([]*expr.FieldEval, len(n.GroupingColumns))
	for i, k := range n.GroupingColumns {
		keys[i] = k.Clone().(*expr.FieldEval)
	}
	return &GroupByNode{
		unary:           n.cloneUnary(),
		GroupingColumns: keys,
		Targets:         expr.CloneTargets(n.Targets),
		Having:          cloneExpr(n.Having),
	}
}

func (n *GroupByNode) PlanString() *PlanString {
	keys := make([]string, len(n.GroupingColumns))
	for i, k := range n.GroupingColumns {
		keys[i] = k.Name()
	}
	ps := newPlanString(n).AppendTitle("(" + strings.Join(keys, ", ") + ")")
	ps.AddExplain("targets: " + targetList(n.Targets))
	if n.Having != nil {
		ps.AddExplain("having: " + n.Having.String())
	}
	return ps
}

func (n *GroupByNode) String() string { return Explain(n) }

// SortKey orders by one column.
type SortKey struct {
	Column    *expr.FieldEval
	Ascending bool
}

func (k SortKey) String() string {
	if k.Ascending {
		return k.Column.Name() + " asc"
	}
	return k.Column.Name() + " desc"
}

// SortNode orders its input by Keys, most significant first.
type SortNode struct {
	unary
	Keys []SortKey
}

func NewSort(keys []SortKey, child Node) *SortNode {
	return &SortNode{unary: unary{child: child}, Keys: keys}
}

func (n *SortNode) Type() NodeType { return SortType }

func (n *SortNode) Clone() Node {
	keys := make([]SortKey, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = SortKey{Column: k.Column.Clone().(*expr.FieldEval), Ascending: k.Ascending}
	}
	return &SortNode{unary: n.cloneUnary(), Keys: keys}
}

func (n *SortNode) PlanString() *PlanString {
	keys := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = k.String()
	}
	return newPlanString(n).AddExplain("Sort Keys: " + strings.Join(keys, ", "))
}

func (n *SortNode) String() string { return Explain(n) }

// ScanNode reads a table. Qual is a filter applied while scanning and
// Targets, when non-empty, restricts the produced columns.
type ScanNode struct {
	BaseNode
	Table   string
	Alias   string
	Qual    expr.EvalNode
	Targets []expr.Target
}

func NewScan(table, alias string) *ScanNode {
	return &ScanNode{Table: table, Alias: alias}
}

// Qualifier is the name the scanned columns are qualified with.
func (n *ScanNode) Qualifier() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Table
}

func (n *ScanNode) Type() NodeType   { return ScanType }
func (n *ScanNode) Children() []Node { return nil }

func (n *ScanNode) Clone() Node {
	return &ScanNode{
		BaseNode: n.BaseNode,
		Table:    n.Table,
		Alias:    n.Alias,
		Qual:     cloneExpr(n.Qual),
		Targets:  expr.CloneTargets(n.Targets),
	}
}

func (n *ScanNode) PlanString() *PlanString {
	title := " on " + n.Table
	if n.Alias != "" {
		title += " as " + n.Alias
	}
	ps := newPlanString(n).AppendTitle(title)
	if n.Qual != nil {
		ps.AddExplain("filter: " + n.Qual.String())
	}
	if len(n.Targets) > 0 {
		ps.AddExplain("targets: " + targetList(n.Targets))
	}
	return ps
}

func (n *ScanNode) String() string { return Explain(n) }

// StoreNode materializes its input into a table.
type StoreNode struct {
	unary
	Table string
}

func NewStore(table string, child Node) *StoreNode {
	return &StoreNode{unary: unary{child: child}, Table: table}
}

func (n *StoreNode) Type() NodeType { return StoreType }
func (n *StoreNode) Clone() Node    { return &StoreNode{unary: n.cloneUnary(), Table: n.Table} }

func (n *StoreNode) PlanString() *PlanString {
	return newPlanString(n).AppendTitle(" into " + n.Table)
}

func (n *StoreNode) String() string { return Explain(n) }

// LiteralNode produces a single row by evaluating constant targets, as in
// SELECT 1 + 2.
type LiteralNode struct {
	BaseNode
	Targets []expr.Target
}

func NewLiteral(targets []expr.Target) *LiteralNode {
	return &LiteralNode{Targets: targets}
}

func (n *LiteralNode) Type() NodeType   { return LiteralType }
func (n *LiteralNode) Children() []Node { return nil }

func (n *LiteralNode) Clone() Node {
	return &LiteralNode{BaseNode: n.BaseNode, Targets: expr.CloneTargets(n.Targets)}
}

func (n *LiteralNode) PlanString() *PlanString {
	return newPlanString(n).AddExplain("expr: " + targetList(n.Targets))
}

func (n *LiteralNode) String() string { return Explain(n) }

func cloneExpr(e expr.EvalNode) expr.EvalNode {
	if e == nil {
		return nil
	}
	return e.Clone()
}

func targetList(targets []expr.Target) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
