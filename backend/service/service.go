package service

import (
	"encoding/json"
	"errors"
	"runtime/debug"

	"github.com/adwski/signal-relay/backend/metrics"
	"github.com/adwski/signal-relay/backend/model"
	"github.com/adwski/signal-relay/backend/ratelimit"
	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyConnectionID = errors.New("empty connection id")
)

type (
	// Service binds connection lifecycle to the router and the switch.
	Service struct {
		router  *Router
		sw      Switch
		limiter *ratelimit.Limiter
		metrics *metrics.Relay
		logger  zerolog.Logger
	}

	Config struct {
		Registry Registry
		Switch   Switch
		Limiter  *ratelimit.Limiter
		Metrics  *metrics.Relay
		Logger   *zerolog.Logger
	}
)

func NewService(cfg Config) *Service {
	return &Service{
		router: NewRouter(RouterConfig{
			Registry: cfg.Registry,
			Metrics:  cfg.Metrics,
			Logger:   cfg.Logger,
		}),
		sw:      cfg.Switch,
		limiter: cfg.Limiter,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With().Str("component", "service").Logger(),
	}
}

// CreateSignalingSession registers connection's outbound queue and greets it with its id.
func (svc *Service) CreateSignalingSession(connID string, wire model.Wire) error {
	if connID == "" {
		return ErrEmptyConnectionID
	}
	svc.sw.Connect(connID, wire)
	svc.metrics.ConnectionOpened()
	svc.sw.Forward(model.Announcement{
		DST:     connID,
		Type:    model.EventConnected,
		Payload: model.Connected{ConnectionID: connID},
	})
	svc.logger.Debug().
		Str("connectionID", connID).
		Msg("signaling session created")
	return nil
}

// DeleteSignalingSession evicts connection from its room, notifies the room
// and releases the outbound queue. It must be called once per connection.
func (svc *Service) DeleteSignalingSession(connID string) error {
	if connID == "" {
		return ErrEmptyConnectionID
	}
	svc.sw.Forward(svc.router.Disconnect(connID)...)
	svc.sw.Disconnect(connID)
	svc.limiter.Forget(connID)
	svc.metrics.ConnectionClosed()
	svc.logger.Debug().
		Str("connectionID", connID).
		Msg("signaling session deleted")
	return nil
}

// HandleEvent processes one raw inbound frame. Nothing that happens here
// can affect other connections or terminate the channel.
func (svc *Service) HandleEvent(connID string, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			svc.metrics.Panic()
			svc.logger.Error().
				Str("connectionID", connID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("event handler panicked")
		}
	}()

	if !svc.limiter.Allow(connID) {
		svc.metrics.Dropped(metrics.DropRateLimited)
		svc.logger.Warn().
			Str("connectionID", connID).
			Msg("event dropped, rate limit exceeded")
		return
	}

	var ev model.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		svc.metrics.Dropped(metrics.DropMalformed)
		svc.logger.Debug().Err(err).
			Str("connectionID", connID).
			Msg("failed to unmarshall incoming message")
		svc.sw.Forward(model.Announcement{
			DST:     connID,
			Type:    model.EventError,
			Payload: model.Error{Message: "malformed message"},
		})
		return
	}
	if svc.logger.GetLevel() <= zerolog.TraceLevel {
		svc.logger.Trace().
			Str("connectionID", connID).
			Str("event", spew.Sdump(ev)).
			Msg("got event")
	}

	if model.IsInboundEvent(ev.Type) {
		svc.metrics.Event(ev.Type)
	} else {
		svc.metrics.Event("unknown")
	}
	svc.sw.Forward(svc.router.Dispatch(connID, ev)...)
}
