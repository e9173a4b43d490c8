package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signal_relay"

// Drop reasons.
const (
	DropNotAuthorized = "not_authorized"
	DropNotJoined     = "not_joined"
	DropRateLimited   = "rate_limited"
	DropQueueFull     = "queue_full"
	DropMalformed     = "malformed"
)

// Relay holds relay collectors. A nil *Relay is valid and records nothing.
type Relay struct {
	connections prometheus.Gauge
	events      *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	delivered   prometheus.Counter
	panics      prometheus.Counter
}

func New(reg prometheus.Registerer) *Relay {
	f := promauto.With(reg)
	return &Relay{
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open signaling connections.",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Inbound events by type.",
		}, []string{"type"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Inbound or outbound events dropped, by reason.",
		}, []string{"reason"}),
		delivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_delivered_total",
			Help:      "Outbound events queued to recipients.",
		}),
		panics: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Recovered panics while handling inbound events.",
		}),
	}
}

type RoomCounter interface {
	Counts() (rooms, users int)
}

// RegisterRoomGauges exposes registry sizes, sampled on scrape.
func RegisterRoomGauges(reg prometheus.Registerer, rc RoomCounter) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms",
		Help:      "Rooms with at least one participant.",
	}, func() float64 {
		rooms, _ := rc.Counts()
		return float64(rooms)
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "participants",
		Help:      "Connections joined to a room.",
	}, func() float64 {
		_, users := rc.Counts()
		return float64(users)
	})
}

func (m *Relay) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Relay) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Relay) Event(typ string) {
	if m != nil {
		m.events.WithLabelValues(typ).Inc()
	}
}

func (m *Relay) Dropped(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

func (m *Relay) Delivered(n int) {
	if m != nil && n > 0 {
		m.delivered.Add(float64(n))
	}
}

func (m *Relay) Panic() {
	if m != nil {
		m.panics.Inc()
	}
}
