package _switch

import (
	"sync"

	"github.com/adwski/signal-relay/backend/metrics"
	"github.com/adwski/signal-relay/backend/model"
	"github.com/rs/zerolog"
)

// Switch delivers announcements to connection outbound queues.
// Delivery never blocks: if a recipient's queue is full the announcement is dropped for that recipient.
type Switch struct {
	logger  zerolog.Logger
	metrics *metrics.Relay
	mx      *sync.RWMutex
	fwd     map[string]model.Wire
}

func NewSwitch(logger *zerolog.Logger, m *metrics.Relay) *Switch {
	return &Switch{
		logger:  logger.With().Str("component", "switch").Logger(),
		metrics: m,
		mx:      &sync.RWMutex{},
		fwd:     make(map[string]model.Wire),
	}
}

func (sw *Switch) Connect(endpoint string, wire model.Wire) {
	sw.mx.Lock()
	sw.fwd[endpoint] = wire
	sw.mx.Unlock()

	sw.logger.Debug().
		Str("endpoint", endpoint).
		Msg("endpoint connected")
}

// Disconnect removes endpoint and closes its outbound queue.
func (sw *Switch) Disconnect(endpoint string) {
	sw.mx.Lock()
	wire, ok := sw.fwd[endpoint]
	if ok {
		delete(sw.fwd, endpoint)
		close(wire.TX)
	}
	sw.mx.Unlock()

	if ok {
		sw.logger.Debug().
			Str("endpoint", endpoint).
			Msg("endpoint disconnected")
	}
}

// Forward queues every announcement to its DST and returns the number queued.
// Announcements are queued in the given order.
func (sw *Switch) Forward(anns ...model.Announcement) int {
	var sent int

	sw.mx.RLock()
	defer sw.mx.RUnlock()

	for _, ann := range anns {
		wire, ok := sw.fwd[ann.DST]
		if !ok {
			sw.logger.Debug().
				Str("dst", ann.DST).
				Str("type", ann.Type).
				Msg("cannot forward, dst not found")
			continue
		}
		if send(ann, wire.TX, &sw.logger) {
			sent++
		} else {
			sw.metrics.Dropped(metrics.DropQueueFull)
		}
	}
	sw.metrics.Delivered(sent)
	return sent
}

func send(ann model.Announcement, tx chan<- model.Announcement, logger *zerolog.Logger) bool {
	select {
	case tx <- ann:
		logger.Trace().Str("dst", ann.DST).Str("type", ann.Type).Msg("announce is forwarded")
		return true
	default:
		logger.Error().Str("dst", ann.DST).Str("type", ann.Type).Msg("dead endpoint, outbound queue is full")
		return false
	}
}
