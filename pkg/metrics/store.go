package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records workspace mutation and snapshot persistence activity.
type StoreMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	saveDuration    *prometheus.HistogramVec
	reg             prometheus.Registerer
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_store_mutations_total",
		Help: "Applied entity store mutations.",
	}, []string{"operation"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_snapshot_persist_failures_total",
		Help: "Snapshot saves that failed after a mutation was applied.",
	}, []string{"collection"})
	saveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_snapshot_save_duration_seconds",
		Help:    "Duration of snapshot saves in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	reg.MustRegister(mutations, persistFailures, saveDuration)
	return &StoreMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		saveDuration:    saveDuration,
		reg:             reg,
	}
}

// IncMutation counts an applied mutation.
func (m *StoreMetrics) IncMutation(operation string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncPersistFailure counts a failed snapshot save.
func (m *StoreMetrics) IncPersistFailure(collection string) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.WithLabelValues(normalizeLabel(collection)).Inc()
}

// ObserveSave records how long a snapshot save took.
func (m *StoreMetrics) ObserveSave(collection string, duration time.Duration) {
	if m == nil || m.saveDuration == nil {
		return
	}
	m.saveDuration.WithLabelValues(normalizeLabel(collection)).Observe(duration.Seconds())
}

// TrackOpenWorkspaces exports count as the open workspace gauge. Only the
// first source registered on a registerer is kept.
func (m *StoreMetrics) TrackOpenWorkspaces(count func() int) error {
	if m == nil || m.reg == nil || count == nil {
		return nil
	}
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crm_open_workspaces",
		Help: "Workspaces currently held in memory.",
	}, func() float64 {
		return float64(count())
	})
	if err := m.reg.Register(gauge); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return err
	}
	return nil
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
