package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestSweeperMetricsCountersByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newSweeperMetrics(reg, Config{ServiceName: "evalgate", Environment: "test"})

	m.IncJobRun("trial_expiry")
	m.IncJobRun("trial_expiry")
	m.IncTransition("TRIAL_ACTIVE", "PAYMENT_REQUIRED")
	m.AddBatchProcessed("trial_expiry", 3)
	m.AddBatchProcessed("trial_expiry", 0)
	m.ObserveJobDuration("trial_expiry", 50*time.Millisecond)

	runs := gatherFamily(t, reg, "evalgate_sweeper_job_runs_total")
	require.NotNil(t, runs)
	require.Len(t, runs.GetMetric(), 1)
	require.Equal(t, float64(2), runs.GetMetric()[0].GetCounter().GetValue())

	transitions := gatherFamily(t, reg, "evalgate_sweeper_transitions_total")
	require.NotNil(t, transitions)
	labels := map[string]string{}
	for _, pair := range transitions.GetMetric()[0].GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	require.Equal(t, "TRIAL_ACTIVE", labels["from_status"])
	require.Equal(t, "PAYMENT_REQUIRED", labels["to_status"])

	processed := gatherFamily(t, reg, "evalgate_sweeper_batch_processed_total")
	require.NotNil(t, processed)
	require.Equal(t, float64(3), processed.GetMetric()[0].GetCounter().GetValue())
}

func TestSweeperMetricsNilReceiverIsSafe(t *testing.T) {
	var m *SweeperMetrics

	m.IncJobRun("trial_expiry")
	m.IncJobError("trial_expiry", context.DeadlineExceeded)
	m.ObserveRunLoopLag(time.Second)
}

func TestClassifySweeperJobReason(t *testing.T) {
	require.Equal(t, SweeperJobReasonDeadlineExceeded, ClassifySweeperJobReason(context.DeadlineExceeded))
	require.Equal(t, SweeperJobReasonDBLockTimeout, ClassifySweeperJobReason(&pgconn.PgError{Code: "55P03"}))
	require.Equal(t, SweeperJobReasonSerializationFailure, ClassifySweeperJobReason(&pgconn.PgError{Code: "40001"}))
	require.Equal(t, SweeperJobReasonUniqueViolation, ClassifySweeperJobReason(&pgconn.PgError{Code: "23505"}))
	require.Equal(t, SweeperJobReasonUnknown, ClassifySweeperJobReason(nil))
}
