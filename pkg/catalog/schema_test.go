package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/primitives"
	"sqlcore/pkg/types"
)

func employeeSchema() *Schema {
	return NewSchemaBuilder("employee").
		AddColumn("empId", types.IntType).
		AddColumn("name", types.StringType).
		AddColumn("deptName", types.StringType).
		MustBuild()
}

func TestNewSchemaAssignsIDs(t *testing.T) {
	s := employeeSchema()
	require.Equal(t, 3, s.NumColumns())
	for i := 0; i < s.NumColumns(); i++ {
		assert.Equal(t, primitives.ColumnID(i), s.Column(i).ID)
	}
}

func TestNewSchemaRejectsDuplicates(t *testing.T) {
	_, err := NewSchema(
		NewColumn("t", "a", types.IntType),
		NewColumn("t", "a", types.StringType),
	)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeDuplicateColumn))

	_, err = NewSchema(
		NewColumn("t", "a", types.IntType),
		NewColumn("u", "a", types.IntType),
	)
	assert.NoError(t, err)
}

func TestColumnIndex(t *testing.T) {
	s := employeeSchema()

	tests := []struct {
		name    string
		lookup  string
		want    int
		errCode string
	}{
		{"qualified", "employee.name", 1, ""},
		{"bare", "deptName", 2, ""},
		{"wrong qualifier", "score.name", -1, dberror.CodeColumnNotFound},
		{"missing", "salary", -1, dberror.CodeColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ColumnIndex(tt.lookup)
			if tt.errCode != "" {
				require.Error(t, err)
				assert.True(t, dberror.HasCode(err, tt.errCode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeAndAmbiguity(t *testing.T) {
	score := NewSchemaBuilder("score").
		AddColumn("empId", types.IntType).
		AddColumn("score", types.IntType).
		MustBuild()

	merged, err := Merge(employeeSchema(), score)
	require.NoError(t, err)
	assert.Equal(t, 5, merged.NumColumns())
	assert.Equal(t, primitives.ColumnID(3), merged.Column(3).ID)

	_, err = merged.ColumnIndex("empId")
	assert.True(t, dberror.HasCode(err, dberror.CodeAmbiguousColumn))

	i, err := merged.ColumnIndex("score.empId")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, err = Merge(score, score)
	assert.True(t, dberror.HasCode(err, dberror.CodeDuplicateColumn))
}

func TestQualifyAndEqual(t *testing.T) {
	s := employeeSchema()
	e := s.Qualify("e")
	assert.True(t, e.Contains("e.empId"))
	assert.False(t, e.Contains("employee.empId"))
	assert.False(t, s.Equal(e))
	assert.True(t, e.Equal(e.Qualify("e")))
	assert.Equal(t, "{e.empId (INT), e.name (TEXT), e.deptName (TEXT)}", e.String())
}

func TestMemCatalog(t *testing.T) {
	c := NewMemCatalog()
	require.NoError(t, c.AddTable("employee", employeeSchema()))
	require.Error(t, c.AddTable("EMPLOYEE", employeeSchema()))

	s, err := c.SchemaOf("employee")
	require.NoError(t, err)
	assert.Equal(t, "employee", s.Column(0).Qualifier)

	_, err = c.SchemaOf("missing")
	assert.True(t, dberror.HasCode(err, dberror.CodeTableNotFound))

	fd, err := c.FunctionSignature("SUM", []types.Type{types.IntType})
	require.NoError(t, err)
	assert.Equal(t, AggregateFunction, fd.Kind)
	assert.Equal(t, types.IntType, fd.ReturnType)

	fd, err = c.FunctionSignature("avg", []types.Type{types.IntType})
	require.NoError(t, err)
	assert.Equal(t, "avg(FLOAT)", fd.Signature())

	fd, err = c.FunctionSignature("upper", []types.Type{types.StringType})
	require.NoError(t, err)
	out, err := fd.Eval([]types.Field{types.NewStringField("abc")})
	require.NoError(t, err)
	assert.Equal(t, "ABC", out.String())

	_, err = c.FunctionSignature("upper", []types.Type{types.IntType})
	assert.True(t, dberror.HasCode(err, dberror.CodeFunctionNotFound))
}
