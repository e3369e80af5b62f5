package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SweeperErrorTypeDeadlineExceeded = "deadline_exceeded"
	SweeperErrorTypeDB               = "db"
	SweeperErrorTypeBusinessRule     = "business_rule"
	SweeperErrorTypeUnknown          = "unknown"
)

const (
	SweeperJobReasonDeadlineExceeded     = "deadline_exceeded"
	SweeperJobReasonDBLockTimeout        = "db_lock_timeout"
	SweeperJobReasonSerializationFailure = "serialization_failure"
	SweeperJobReasonUniqueViolation      = "unique_violation"
	SweeperJobReasonUnknown              = "unknown"
)

// SweeperMetrics captures lifecycle sweep health signals.
type SweeperMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	batchProcessed *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	runLoopLag     prometheus.Observer
}

var (
	sweeperMetricsOnce sync.Once
	sweeperMetrics     *SweeperMetrics
)

// Sweeper returns the singleton sweeper metrics registry.
func Sweeper() *SweeperMetrics {
	return SweeperWithConfig(Config{})
}

// SweeperWithConfig returns the singleton sweeper metrics registry using config labels.
func SweeperWithConfig(cfg Config) *SweeperMetrics {
	sweeperMetricsOnce.Do(func() {
		sweeperMetrics = newSweeperMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweeperMetrics
}

// ResetSweeperMetricsForTest resets the sweeper metrics singleton for tests.
func ResetSweeperMetricsForTest() {
	sweeperMetricsOnce = sync.Once{}
	sweeperMetrics = nil
}

func newSweeperMetrics(registerer prometheus.Registerer, cfg Config) *SweeperMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels{
		"service": serviceLabel(cfg),
		"env":     envLabel(cfg),
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "evalgate_sweeper_job_runs_total",
		Help:        "Sweeper job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "evalgate_sweeper_job_duration_seconds",
		Help:        "Sweeper job latency to protect lifecycle freshness.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "evalgate_sweeper_job_timeouts_total",
		Help:        "Sweeper job timeouts that threaten sweep SLAs.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "evalgate_sweeper_job_errors_total",
		Help:        "Sweeper job errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	batchProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "evalgate_sweeper_batch_processed_total",
		Help:        "Subscriptions transitioned per sweep pass.",
		ConstLabels: constLabels,
	}, []string{"job"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "evalgate_sweeper_transitions_total",
		Help:        "Subscription status transitions by from/to pair.",
		ConstLabels: constLabels,
	}, []string{"from_status", "to_status"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "evalgate_sweeper_run_loop_lag_seconds",
		Help:        "Delay between scheduled and actual sweep runs.",
		Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		ConstLabels: constLabels,
	})

	collectors := []prometheus.Collector{jobRuns, jobDuration, jobTimeouts, jobErrors, batchProcessed, transitions, runLoopLag}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
		}
	}

	return &SweeperMetrics{
		jobRuns:        jobRuns,
		jobDuration:    jobDuration,
		jobTimeouts:    jobTimeouts,
		jobErrors:      jobErrors,
		batchProcessed: batchProcessed,
		transitions:    transitions,
		runLoopLag:     runLoopLag,
	}
}

func (m *SweeperMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SweeperMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SweeperMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SweeperMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySweeperJobReason(err)).Inc()
}

func (m *SweeperMetrics) AddBatchProcessed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.batchProcessed.WithLabelValues(job).Add(float64(count))
}

func (m *SweeperMetrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *SweeperMetrics) ObserveRunLoopLag(lag time.Duration) {
	if m == nil || lag <= 0 {
		return
	}
	m.runLoopLag.Observe(lag.Seconds())
}

// ClassifySweeperErrorType buckets an error for structured logging.
func ClassifySweeperErrorType(err error) string {
	switch {
	case err == nil:
		return SweeperErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SweeperErrorTypeDeadlineExceeded
	case isPgError(err), errors.Is(err, gorm.ErrInvalidTransaction):
		return SweeperErrorTypeDB
	default:
		return SweeperErrorTypeUnknown
	}
}

// IsSweeperErrorRetryable reports whether the next scheduled run may succeed.
func IsSweeperErrorRetryable(err error) bool {
	switch ClassifySweeperErrorType(err) {
	case SweeperErrorTypeDeadlineExceeded, SweeperErrorTypeDB:
		return true
	default:
		return false
	}
}

// ClassifySweeperJobReason buckets an error into a low-cardinality label.
func ClassifySweeperJobReason(err error) string {
	if err == nil {
		return SweeperJobReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SweeperJobReasonDeadlineExceeded
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40P01":
			return SweeperJobReasonDBLockTimeout
		case "40001":
			return SweeperJobReasonSerializationFailure
		case "23505":
			return SweeperJobReasonUniqueViolation
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return SweeperJobReasonUniqueViolation
	}
	return SweeperJobReasonUnknown
}

func isPgError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
