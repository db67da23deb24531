package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle results reported by the maintenance scheduler.
const (
	CycleRan       = "ran"
	CycleSkipped   = "skipped"
	CycleLockError = "lock_error"
)

// CronJobMetrics tracks the maintenance scheduler: one histogram per job run
// labelled by job and result, and a counter of scheduler cycles.
type CronJobMetrics struct {
	jobs   *prometheus.HistogramVec
	cycles *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		jobs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solecart_maintenance_job_duration_seconds",
			Help:    "Duration of maintenance job runs by job and result.",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
		}, []string{"job", "result"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solecart_maintenance_cycles_total",
			Help: "Maintenance scheduler cycles by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.jobs, m.cycles)
	return m
}

// ObserveJob records one job run; a non-nil err marks it failed.
func (m *CronJobMetrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobs == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	if job == "" {
		job = "unknown"
	}
	m.jobs.WithLabelValues(job, result).Observe(duration.Seconds())
}

func (m *CronJobMetrics) ObserveCycle(result string) {
	if m == nil || m.cycles == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
}
