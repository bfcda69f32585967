package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics метрики движка записи. Все методы безопасны для nil-получателя,
// поэтому в тестах метрики можно не передавать
type Metrics struct {
	AvailabilityChecks *prometheus.CounterVec
	SearchProbes       prometheus.Counter
	SearchDuration     prometheus.Histogram
	BookingsCommitted  prometheus.Counter
	BookingFailures    *prometheus.CounterVec
	Compensations      *prometheus.CounterVec
	StoreLatency       *prometheus.HistogramVec
	LockWait           prometheus.Histogram
}

// New создаёт и регистрирует метрики в reg
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AvailabilityChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "checks_total",
			Help:      "Availability checks by result code",
		}, []string{"result"}),
		SearchProbes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "probes_total",
			Help:      "Candidate start instants evaluated against the ledger",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Time spent scanning for the next available slot",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		BookingsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "events_committed_total",
			Help:      "Calendar events created for confirmed bookings",
		}),
		BookingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "failures_total",
			Help:      "Rejected or failed booking requests by error code",
		}, []string{"code"}),
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "compensations_total",
			Help:      "Rollbacks of partially created composite bookings",
		}, []string{"result"}),
		StoreLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "call_duration_seconds",
			Help:      "Latency of calendar store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for the booking lock",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		}),
	}
}

func (m *Metrics) CheckResult(result string) {
	if m == nil {
		return
	}
	m.AvailabilityChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) Probe() {
	if m == nil {
		return
	}
	m.SearchProbes.Inc()
}

func (m *Metrics) ObserveSearch(started time.Time) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) Committed(events int) {
	if m == nil {
		return
	}
	m.BookingsCommitted.Add(float64(events))
}

func (m *Metrics) Failure(code string) {
	if m == nil {
		return
	}
	m.BookingFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) Compensation(result string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveStore(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreLatency.WithLabelValues(op, status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveLockWait(started time.Time) {
	if m == nil {
		return
	}
	m.LockWait.Observe(time.Since(started).Seconds())
}
