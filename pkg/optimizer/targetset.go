package optimizer

import (
	"sort"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/expr"
)

// TargetSet is the working set of column references some ancestor needs.
// References are kept as written, qualified or bare.
type TargetSet struct {
	refs map[string]struct{}
}

func NewTargetSet() *TargetSet {
	return &TargetSet{refs: make(map[string]struct{})}
}

// Add registers column references by name.
func (s *TargetSet) Add(names ...string) {
	for _, n := range names {
		s.refs[n] = struct{}{}
	}
}

// AddExpr registers every column e references. Nil expressions are ignored.
func (s *TargetSet) AddExpr(e expr.EvalNode) {
	if e == nil {
		return
	}
	for _, f := range expr.Columns(e) {
		s.Add(f.Name())
	}
}

func (s *TargetSet) AddTargets(targets []expr.Target) {
	for _, t := range targets {
		s.AddExpr(t.Expr)
	}
}

// AddSchema registers every column of schema by qualified name.
func (s *TargetSet) AddSchema(schema *catalog.Schema) {
	for _, c := range schema.Columns() {
		s.Add(c.QualifiedName())
	}
}

// Covers reports whether some registered reference names col.
func (s *TargetSet) Covers(col catalog.Column) bool {
	if _, ok := s.refs[col.QualifiedName()]; ok {
		return true
	}
	_, ok := s.refs[col.Name]
	return ok
}

func (s *TargetSet) Len() int { return len(s.refs) }

// Names returns the registered references in sorted order.
func (s *TargetSet) Names() []string {
	out := make([]string, 0, len(s.refs))
	for n := range s.refs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
