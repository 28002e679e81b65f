package observability

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"pharmanet/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "pharmanet",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of ledger events segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// LogEmitter forwards engine events to the structured log and the event
// counter. It is the default emitter wired by the daemon.
type LogEmitter struct {
	log *slog.Logger
}

// NewLogEmitter builds an emitter writing through the supplied logger. A nil
// logger falls back to slog.Default.
func NewLogEmitter(log *slog.Logger) *LogEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmitter{log: log}
}

// Emit implements events.Emitter.
func (e *LogEmitter) Emit(evt events.Event) {
	Events().emitted.WithLabelValues(evt.Type).Inc()
	args := make([]any, 0, 2*len(evt.Attributes))
	for key, value := range evt.Attributes {
		args = append(args, slog.String(key, value))
	}
	e.log.Info(evt.Type, args...)
}
