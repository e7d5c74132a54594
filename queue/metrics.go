package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors describing task lifecycles.
// One Metrics value may be shared by many queues.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksFinished  *prometheus.CounterVec // labelled by terminal state
	TasksRunning   prometheus.Gauge
	TaskDuration   prometheus.Histogram
	QueuesFinished prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "taskqueue",
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to a worker pool",
		}),
		TasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "taskqueue",
			Name:      "tasks_finished_total",
			Help:      "Total number of tasks that reached a terminal state",
		}, []string{"state"}),
		TasksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "taskqueue",
			Name:      "tasks_running",
			Help:      "Number of work units currently executing",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "taskqueue",
			Name:      "task_duration_seconds",
			Help:      "Wall time spent inside work units",
			Buckets:   prometheus.DefBuckets,
		}),
		QueuesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "taskqueue",
			Name:      "queues_finished_total",
			Help:      "Total number of queues that invoked their finish callback",
		}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TasksSubmitted,
		m.TasksFinished,
		m.TasksRunning,
		m.TaskDuration,
		m.QueuesFinished,
	}
}

func (m *Metrics) submitted() {
	if m != nil {
		m.TasksSubmitted.Inc()
	}
}

func (m *Metrics) started() {
	if m != nil {
		m.TasksRunning.Inc()
	}
}

func (m *Metrics) returned(d time.Duration) {
	if m != nil {
		m.TasksRunning.Dec()
		m.TaskDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) finished(state State) {
	if m != nil {
		m.TasksFinished.WithLabelValues(state.String()).Inc()
	}
}

func (m *Metrics) queueFinished() {
	if m != nil {
		m.QueuesFinished.Inc()
	}
}
