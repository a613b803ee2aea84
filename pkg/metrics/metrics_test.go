package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordQuery(t *testing.T) {
	before := testutil.ToFloat64(queriesTotal)
	beforeErrs := testutil.ToFloat64(queryErrors)

	RecordQuery(3*time.Millisecond, nil)
	RecordQuery(time.Millisecond, errors.New("boom"))

	assert.Equal(t, before+2, testutil.ToFloat64(queriesTotal))
	assert.Equal(t, beforeErrs+1, testutil.ToFloat64(queryErrors))
}

func TestCollectorsRegistered(t *testing.T) {
	TuplesEmitted.WithLabelValues("Filter").Add(3)
	SpillRuns.WithLabelValues("ExternalSort").Inc()

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sqlcore_execution_tuples_emitted_total"])
	assert.True(t, names["sqlcore_execution_spill_runs_total"])
	assert.True(t, names["sqlcore_queries_total"])
}
