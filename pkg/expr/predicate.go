package expr

import (
	"strings"

	"github.com/grafana/regexp"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// NotEval negates a boolean child. NOT NULL is NULL.
type NotEval struct {
	Child EvalNode
}

func NewNot(child EvalNode) *NotEval { return &NotEval{Child: child} }

func (n *NotEval) Kind() Kind             { return KindNot }
func (n *NotEval) ResultType() types.Type { return types.BoolType }
func (n *NotEval) Clone() EvalNode        { return &NotEval{Child: n.Child.Clone()} }
func (n *NotEval) String() string         { return "NOT " + operand(n.Child) }
func (n *NotEval) evalNode()              {}

func (n *NotEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	v, err := n.Child.Eval(schema, t)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*types.BoolField)
	if !ok {
		return types.Null, nil
	}
	return boolField(!b.Value), nil
}

// LikeEval matches a string against a SQL pattern where % matches any run of
// characters and _ matches exactly one.
type LikeEval struct {
	Child           EvalNode
	Pattern         string
	Not             bool
	CaseInsensitive bool

	compiled *regexp.Regexp
}

func NewLike(child EvalNode, pattern string, not, caseInsensitive bool) (*LikeEval, error) {
	l := &LikeEval{Child: child, Pattern: pattern, Not: not, CaseInsensitive: caseInsensitive}
	if err := l.compile(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LikeEval) compile() error {
	var b strings.Builder
	if l.CaseInsensitive {
		b.WriteString("(?is)")
	} else {
		b.WriteString("(?s)")
	}
	b.WriteString("^")
	for _, r := range l.Pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"invalid LIKE pattern %q", l.Pattern).WithDetail("%v", err)
	}
	l.compiled = re
	return nil
}

// IsLeadingWildcard reports whether the pattern starts with a wildcard, which
// rules out prefix matching on the column.
func (l *LikeEval) IsLeadingWildcard() bool {
	return strings.HasPrefix(l.Pattern, "%") || strings.HasPrefix(l.Pattern, "_")
}

func (l *LikeEval) Kind() Kind             { return KindLike }
func (l *LikeEval) ResultType() types.Type { return types.BoolType }
func (l *LikeEval) evalNode()              {}

func (l *LikeEval) Clone() EvalNode {
	return &LikeEval{
		Child:           l.Child.Clone(),
		Pattern:         l.Pattern,
		Not:             l.Not,
		CaseInsensitive: l.CaseInsensitive,
		compiled:        l.compiled,
	}
}

func (l *LikeEval) String() string {
	op := " LIKE "
	if l.CaseInsensitive {
		op = " ILIKE "
	}
	if l.Not {
		op = " NOT" + op
	}
	return operand(l.Child) + op + "'" + l.Pattern + "'"
}

func (l *LikeEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	v, err := l.Child.Eval(schema, t)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*types.StringField)
	if !ok {
		return types.Null, nil
	}
	return boolField(l.compiled.MatchString(s.Value) != l.Not), nil
}

// BetweenEval tests Low <= Child <= High. When Symmetric is set the bounds may
// be given in either order.
type BetweenEval struct {
	Child     EvalNode
	Low       EvalNode
	High      EvalNode
	Not       bool
	Symmetric bool
}

func NewBetween(child, low, high EvalNode, not bool) *BetweenEval {
	return &BetweenEval{Child: child, Low: low, High: high, Not: not}
}

func (b *BetweenEval) Kind() Kind             { return KindBetween }
func (b *BetweenEval) ResultType() types.Type { return types.BoolType }
func (b *BetweenEval) evalNode()              {}

func (b *BetweenEval) Clone() EvalNode {
	return &BetweenEval{
		Child:     b.Child.Clone(),
		Low:       b.Low.Clone(),
		High:      b.High.Clone(),
		Not:       b.Not,
		Symmetric: b.Symmetric,
	}
}

func (b *BetweenEval) String() string {
	op := " BETWEEN "
	if b.Not {
		op = " NOT BETWEEN "
	}
	return operand(b.Child) + op + operand(b.Low) + " AND " + operand(b.High)
}

func (b *BetweenEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	var vals [3]types.Field
	for i, e := range []EvalNode{b.Child, b.Low, b.High} {
		v, err := e.Eval(schema, t)
		if err != nil {
			return nil, err
		}
		if types.IsNull(v) {
			return types.Null, nil
		}
		vals[i] = v
	}

	low, high := vals[1], vals[2]
	if b.Symmetric {
		c, err := types.Compare(low, high)
		if err != nil {
			return nil, err
		}
		if c > 0 {
			low, high = high, low
		}
	}

	lc, err := types.Compare(vals[0], low)
	if err != nil {
		return nil, err
	}
	hc, err := types.Compare(vals[0], high)
	if err != nil {
		return nil, err
	}
	return boolField((lc >= 0 && hc <= 0) != b.Not), nil
}

// InEval tests membership of Child in a list of values. A miss against a
// list containing NULL is NULL.
type InEval struct {
	Child  EvalNode
	Values []EvalNode
	Not    bool
}

func NewIn(child EvalNode, values []EvalNode, not bool) *InEval {
	return &InEval{Child: child, Values: values, Not: not}
}

func (in *InEval) Kind() Kind             { return KindIn }
func (in *InEval) ResultType() types.Type { return types.BoolType }
func (in *InEval) evalNode()              {}

func (in *InEval) Clone() EvalNode {
	return &InEval{Child: in.Child.Clone(), Values: cloneAll(in.Values), Not: in.Not}
}

func (in *InEval) String() string {
	op := " IN ("
	if in.Not {
		op = " NOT IN ("
	}
	return operand(in.Child) + op + joinStrings(in.Values) + ")"
}

func (in *InEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	v, err := in.Child.Eval(schema, t)
	if err != nil {
		return nil, err
	}
	if types.IsNull(v) {
		return types.Null, nil
	}

	sawNull := false
	for _, e := range in.Values {
		candidate, err := e.Eval(schema, t)
		if err != nil {
			return nil, err
		}
		if types.IsNull(candidate) {
			sawNull = true
			continue
		}
		if v.Equals(candidate) {
			return boolField(!in.Not), nil
		}
	}
	if sawNull {
		return types.Null, nil
	}
	return boolField(in.Not), nil
}

// IsNullEval tests Child IS [NOT] NULL. It never yields NULL itself.
type IsNullEval struct {
	Child EvalNode
	Not   bool
}

func NewIsNull(child EvalNode, not bool) *IsNullEval {
	return &IsNullEval{Child: child, Not: not}
}

func (n *IsNullEval) Kind() Kind             { return KindIsNull }
func (n *IsNullEval) ResultType() types.Type { return types.BoolType }
func (n *IsNullEval) Clone() EvalNode        { return &IsNullEval{Child: n.Child.Clone(), Not: n.Not} }
func (n *IsNullEval) evalNode()              {}

func (n *IsNullEval) String() string {
	if n.Not {
		return operand(n.Child) + " IS NOT NULL"
	}
	return operand(n.Child) + " IS NULL"
}

func (n *IsNullEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	v, err := n.Child.Eval(schema, t)
	if err != nil {
		return nil, err
	}
	return boolField(types.IsNull(v) != n.Not), nil
}
