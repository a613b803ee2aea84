package aggregation

import (
	"strings"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
)

// AggregateOp represents the type of aggregation operation to perform.
type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
	CountStar
)

func (op AggregateOp) String() string {
	switch op {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	case CountStar:
		return "COUNT(*)"
	default:
		return "UNKNOWN"
	}
}

// ParseAggregateOp maps an aggregate function name and its arity to an
// operation. count without arguments is COUNT(*).
func ParseAggregateOp(name string, args int) (AggregateOp, error) {
	switch strings.ToLower(name) {
	case catalog.AggMin:
		return Min, nil
	case catalog.AggMax:
		return Max, nil
	case catalog.AggSum:
		return Sum, nil
	case catalog.AggAvg:
		return Avg, nil
	case catalog.AggCount:
		if args == 0 {
			return CountStar, nil
		}
		return Count, nil
	default:
		return 0, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeFunctionNotFound,
			"unsupported aggregate operation: %s", name)
	}
}
