package join

import (
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/execution"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/tuple"
)

// output builds result rows from matched pairs.
type output struct {
	merged  *catalog.Schema
	targets []expr.Target
	schema  *catalog.Schema
}

// newOutput describes the rows of a join over cond. Without targets the
// result is the merged row itself.
func newOutput(cond *Condition, targets []expr.Target) (*output, error) {
	o := &output{merged: cond.Merged(), targets: targets, schema: cond.Merged()}
	if len(targets) > 0 {
		schema, err := expr.TargetSchema(targets)
		if err != nil {
			return nil, err
		}
		o.schema = schema
	}
	return o, nil
}

func (o *output) combine(outer, inner *tuple.Tuple) (*tuple.Tuple, error) {
	return tuple.Combine(o.merged, outer, inner)
}

// project turns a merged row into a result row.
func (o *output) project(merged *tuple.Tuple) (*tuple.Tuple, error) {
	if len(o.targets) == 0 {
		return merged, nil
	}
	return execution.EvalTargets(o.targets, o.merged, merged, o.schema)
}

// Options configures the optional parts shared by all join operators.
type Options struct {
	// Targets, when set, are evaluated on every merged row.
	Targets []expr.Target
}
