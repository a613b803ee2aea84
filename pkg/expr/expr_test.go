package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func employeeSchema() *catalog.Schema {
	return catalog.NewSchemaBuilder("employee").
		AddColumn("empId", types.IntType).
		AddColumn("name", types.StringType).
		AddColumn("salary", types.FloatType).
		AddColumn("manager", types.IntType).
		MustBuild()
}

func employeeRow(s *catalog.Schema, id int64, name string, salary float64, manager any) *tuple.Tuple {
	return tuple.MustOf(s, id, name, salary, manager)
}

func evalOn(t *testing.T, e EvalNode, s *catalog.Schema, row *tuple.Tuple) types.Field {
	t.Helper()
	v, err := e.Eval(s, row)
	require.NoError(t, err)
	return v
}

// ============================================================================
// EVALUATION TESTS
// ============================================================================

func TestBinaryEval(t *testing.T) {
	s := employeeSchema()
	row := employeeRow(s, 7, "ann", 1000.5, int64(3))

	tests := []struct {
		name     string
		expr     EvalNode
		expected string
	}{
		{"int plus", Plus(Col("empId", types.IntType), Int(3)), "10"},
		{"float promotion", Mul(Col("empId", types.IntType), Float(0.5)), "3.5"},
		{"qualified equality", Eq(Col("employee.empId", types.IntType), Int(7)), "true"},
		{"less than", Lt(Col("salary", types.FloatType), Int(1000)), "false"},
		{"and", And(Gt(Col("empId", types.IntType), Int(1)), Eq(Col("name", types.StringType), Str("ann"))), "true"},
		{"or", Or(Lt(Col("empId", types.IntType), Int(1)), NotEq(Col("name", types.StringType), Str("bob"))), "true"},
		{"modulo", Mod(Col("empId", types.IntType), Int(4)), "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, evalOn(t, tt.expr, s, row).String())
		})
	}
}

func TestThreeValuedLogic(t *testing.T) {
	s := employeeSchema()
	row := employeeRow(s, 1, "bob", 10, nil)
	managerIsFive := Eq(Col("manager", types.IntType), Int(5))

	tests := []struct {
		name   string
		expr   EvalNode
		isNull bool
		value  bool
	}{
		{"comparison with null", managerIsFive, true, false},
		{"null and false is false", And(managerIsFive, Bool(false)), false, false},
		{"null and true is null", And(managerIsFive, Bool(true)), true, false},
		{"null or true is true", Or(managerIsFive, Bool(true)), false, true},
		{"null or false is null", Or(managerIsFive, Bool(false)), true, false},
		{"not null is null", NewNot(managerIsFive), true, false},
		{"is null", NewIsNull(Col("manager", types.IntType), false), false, true},
		{"is not null", NewIsNull(Col("manager", types.IntType), true), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := evalOn(t, tt.expr, s, row)
			if tt.isNull {
				assert.True(t, types.IsNull(v), "got %s", v)
				return
			}
			assert.Equal(t, tt.value, IsTrue(v))
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	s := employeeSchema()
	row := employeeRow(s, 1, "bob", 10, nil)

	_, err := Div(Col("empId", types.IntType), Int(0)).Eval(s, row)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeDivisionByZero))
}

func TestPatternPredicates(t *testing.T) {
	s := employeeSchema()
	row := employeeRow(s, 4, "Margaret", 50, int64(1))
	name := Col("name", types.StringType)
	id := Col("empId", types.IntType)

	mustLike := func(pattern string, not, ci bool) EvalNode {
		l, err := NewLike(name, pattern, not, ci)
		require.NoError(t, err)
		return l
	}

	tests := []struct {
		name     string
		expr     EvalNode
		expected bool
	}{
		{"like prefix", mustLike("Mar%", false, false), true},
		{"like single char", mustLike("Margare_", false, false), true},
		{"like case sensitive", mustLike("mar%", false, false), false},
		{"ilike", mustLike("mar%", false, true), true},
		{"not like", mustLike("%x%", true, false), true},
		{"like escapes regexp meta", mustLike("Marg.ret", false, false), false},
		{"between", NewBetween(id, Int(1), Int(4), false), true},
		{"not between", NewBetween(id, Int(5), Int(9), true), true},
		{"in", NewIn(id, []EvalNode{Int(2), Int(4)}, false), true},
		{"not in", NewIn(id, []EvalNode{Int(2), Int(3)}, true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTrue(evalOn(t, tt.expr, s, row)))
		})
	}
}

func TestInWithNullMember(t *testing.T) {
	s := employeeSchema()
	row := employeeRow(s, 4, "x", 0, nil)

	v := evalOn(t, NewIn(Col("empId", types.IntType), []EvalNode{Int(1), NullConst()}, false), s, row)
	assert.True(t, types.IsNull(v))
}

func TestFuncCallThroughCatalog(t *testing.T) {
	cat := catalog.NewMemCatalog()
	s := employeeSchema()
	row := employeeRow(s, -4, "ann", 0, nil)

	upper, err := Call(cat, "upper", Col("name", types.StringType))
	require.NoError(t, err)
	assert.Equal(t, "ANN", evalOn(t, upper, s, row).String())

	abs, err := Call(cat, "abs", Col("empId", types.IntType))
	require.NoError(t, err)
	assert.Equal(t, "4", evalOn(t, abs, s, row).String())

	sum, err := Call(cat, "sum", Col("salary", types.FloatType))
	require.NoError(t, err)
	_, isAgg := sum.(*AggFuncCallEval)
	require.True(t, isAgg)

	_, err = sum.Eval(s, row)
	assert.Error(t, err)
}

func TestFieldEvalUnknownColumn(t *testing.T) {
	s := employeeSchema()
	_, err := Col("missing", types.IntType).Eval(s, employeeRow(s, 1, "a", 0, nil))
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeColumnNotFound))
}

// ============================================================================
// TREE UTILITY TESTS
// ============================================================================

func TestCloneIsDeep(t *testing.T) {
	orig := And(Eq(Col("a", types.IntType), Int(1)), Gt(Col("b", types.IntType), Int(2)))
	clone := orig.Clone().(*BinaryEval)

	clone.Left.(*BinaryEval).Right = Int(99)
	assert.Equal(t, "(a = 1) AND (b > 2)", orig.String())
	assert.Equal(t, "(a = 99) AND (b > 2)", clone.String())
	assert.False(t, Equal(orig, clone))
	assert.True(t, Equal(orig, orig.Clone()))
}

func TestColumnsAreDistinct(t *testing.T) {
	e := And(Eq(Col("a", types.IntType), Col("b", types.IntType)), Gt(Col("a", types.IntType), Int(2)))

	names := make([]string, 0)
	for _, f := range Columns(e) {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestReplaceLeavesInputIntact(t *testing.T) {
	e := Plus(Col("a", types.IntType), Col("b", types.IntType))
	out := Replace(e, func(n EvalNode) EvalNode {
		if f, ok := n.(*FieldEval); ok && f.Name() == "b" {
			return Int(10)
		}
		return nil
	})

	assert.Equal(t, "a + b", e.String())
	assert.Equal(t, "a + 10", out.String())
}

func TestFindAggregates(t *testing.T) {
	cat := catalog.NewMemCatalog()
	sum, err := Call(cat, "sum", Col("x", types.IntType))
	require.NoError(t, err)
	cnt, err := Call(cat, "count")
	require.NoError(t, err)

	aggs := FindAggregates(Plus(sum, cnt))
	require.Len(t, aggs, 2)
	assert.Equal(t, "sum(x)", aggs[0].String())
	assert.Equal(t, "count(*)", aggs[1].String())
}

func TestTargetColumn(t *testing.T) {
	tests := []struct {
		name     string
		target   Target
		expected string
	}{
		{"field keeps qualifier", NewTarget(Col("employee.name", types.StringType), ""), "employee.name (TEXT)"},
		{"alias", NewTarget(Plus(Col("a", types.IntType), Int(1)), "next"), "next (INT)"},
		{"expression name", NewTarget(Plus(Col("a", types.IntType), Int(1)), ""), "a + 1 (INT)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.target.Column().String())
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		expr    EvalNode
		wantErr bool
	}{
		{"numeric compare", Lt(Col("a", types.IntType), Float(1)), false},
		{"text vs int", Eq(Col("a", types.StringType), Int(1)), true},
		{"arith on text", Plus(Col("a", types.StringType), Int(1)), true},
		{"and on int", And(Col("a", types.IntType), Bool(true)), true},
		{"null operand", Eq(Col("a", types.IntType), NullConst()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dberror.HasCode(err, dberror.CodeTypeMismatch))
				return
			}
			assert.NoError(t, err)
		})
	}
}
