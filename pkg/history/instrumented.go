package history

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// Instrumented records save counts and latency for a store.
type Instrumented struct {
	next     mailer.HistoryStore
	store    string
	saves    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ mailer.HistoryStore = (*Instrumented)(nil)

// Collectors are the metrics shared by every instrumented store.
type Collectors struct {
	Saves    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewCollectors creates and registers history metrics.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postmaster",
			Subsystem: "history",
			Name:      "saves_total",
			Help:      "History records saved, by store and result.",
		}, []string{"store", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postmaster",
			Subsystem: "history",
			Name:      "save_duration_seconds",
			Help:      "Time spent saving a history record.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store"}),
	}
	if reg != nil {
		reg.MustRegister(c.Saves, c.Duration)
	}
	return c
}

// Instrument wraps next; store labels its metrics.
func (c *Collectors) Instrument(next mailer.HistoryStore, store string) *Instrumented {
	return &Instrumented{next: next, store: store, saves: c.Saves, duration: c.Duration}
}

// Save implements mailer.HistoryStore.
func (i *Instrumented) Save(ctx context.Context, rec mailer.HistoryRecord) error {
	start := time.Now()
	err := i.next.Save(ctx, rec)
	i.duration.WithLabelValues(i.store).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	i.saves.WithLabelValues(i.store, result).Inc()
	return err
}
