package stream

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/missionfeed/pkg/event"
	"github.com/bft-labs/missionfeed/pkg/lifecycle"
)

// Metrics holds the stream client's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	attempts   *prometheus.CounterVec
	state      prometheus.Gauge
	events     *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	reconnects prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionfeed_connect_attempts_total",
				Help: "Stream connection attempts by outcome",
			},
			[]string{"outcome"},
		),
		state: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "missionfeed_connection_state",
				Help: "Connection state (0 idle, 1 connecting, 2 streaming, 3 disconnected)",
			},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionfeed_events_total",
				Help: "Stream events decoded and published, by kind",
			},
			[]string{"kind"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionfeed_frames_dropped_total",
				Help: "Stream frames discarded without an event, by reason",
			},
			[]string{"reason"},
		),
		reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "missionfeed_reconnects_scheduled_total",
				Help: "Reconnect attempts scheduled after a disconnect",
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.attempts, m.state, m.events, m.dropped, m.reconnects} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) attempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setState(s lifecycle.State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

func (m *Metrics) eventPublished(k event.Kind) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) frameDropped(err error) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(dropReason(err)).Inc()
}

func (m *Metrics) reconnectScheduled() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, event.ErrNoPayload):
		return "no_payload"
	case errors.Is(err, event.ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, event.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, event.ErrMissingField):
		return "missing_field"
	case errors.Is(err, event.ErrInvalidRecord):
		return "invalid_record"
	default:
		return "rejected"
	}
}
