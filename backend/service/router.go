package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adwski/signal-relay/backend/metrics"
	"github.com/adwski/signal-relay/backend/model"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const MaxChatMessageLength = 500

var (
	ErrUnknownEvent     = errors.New("unknown event type")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrRoomMismatch     = errors.New("sender is not in this room")
	ErrTargetNotInRoom  = errors.New("target is not in sender's room")
	ErrNotJoined        = errors.New("sender is not joined to any room")
)

var validate = validator.New()

// Router turns one inbound event into the announcements it causes.
// It keeps no state of its own; membership lives in the Registry.
type Router struct {
	reg     Registry
	metrics *metrics.Relay
	logger  zerolog.Logger
	now     func() time.Time
}

type RouterConfig struct {
	Registry Registry
	Metrics  *metrics.Relay
	Logger   *zerolog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		reg:     cfg.Registry,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With().Str("component", "router").Logger(),
		now:     time.Now,
	}
}

// Dispatch handles event from connection connID. Invalid input produces a private
// error announcement; unauthorized or unjoined senders produce nothing.
func (rt *Router) Dispatch(connID string, ev model.Event) []model.Announcement {
	var (
		anns []model.Announcement
		err  error
	)
	switch ev.Type {
	case model.EventJoinRoom:
		var req model.JoinRoomRequest
		if err = decode(ev.Payload, &req); err == nil {
			anns, err = rt.JoinRoom(connID, req)
		}
	case model.EventLeaveRoom:
		var req model.LeaveRoomRequest
		if err = decode(ev.Payload, &req); err == nil {
			anns, err = rt.LeaveRoom(connID, req)
		}
	case model.EventOffer, model.EventAnswer, model.EventCandidate:
		var req model.SignalRequest
		if err = decode(ev.Payload, &req); err == nil {
			anns, err = rt.Relay(connID, ev.Type, req)
		}
	case model.EventChatMessage:
		var req model.ChatRequest
		if err = decode(ev.Payload, &req); err == nil {
			anns, err = rt.Chat(connID, req)
		}
	case model.EventToggleVideo:
		var req model.ToggleVideoRequest
		if err = decode(ev.Payload, &req); err == nil {
			anns, err = rt.Toggle(connID, req.RoomID, model.PresenceVideo, req.VideoEnabled)
		}
	case model.EventToggleAudio:
		var req model.ToggleAudioRequest
		if err = decode(ev.Payload, &req); err == nil {
			anns, err = rt.Toggle(connID, req.RoomID, model.PresenceAudio, req.AudioEnabled)
		}
	default:
		err = fmt.Errorf("%w: %w %q", model.ErrInvalidArgument, ErrUnknownEvent, ev.Type)
	}
	if err != nil {
		return rt.reject(connID, ev.Type, err)
	}
	return anns
}

func (rt *Router) reject(connID, typ string, err error) []model.Announcement {
	logger := rt.logger.With().
		Str("connectionID", connID).
		Str("type", typ).
		Logger()

	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		logger.Debug().Err(err).Msg("event rejected")
		return []model.Announcement{errorTo(connID, err)}
	case errors.Is(err, model.ErrNotAuthorized):
		rt.metrics.Dropped(metrics.DropNotAuthorized)
		logger.Debug().Err(err).Msg("event dropped")
	case errors.Is(err, model.ErrNotFound):
		rt.metrics.Dropped(metrics.DropNotJoined)
		logger.Debug().Err(err).Msg("event dropped")
	default:
		logger.Error().Err(err).Msg("event handling failed")
	}
	return nil
}

// JoinRoom binds connection to a room. The joiner gets the list of other participants,
// the others get participant-joined. If the connection left another room by joining,
// members of that room are told first.
func (rt *Router) JoinRoom(connID string, req model.JoinRoomRequest) ([]model.Announcement, error) {
	res, err := rt.reg.Join(connID, req.RoomID, req.DisplayName)
	if err != nil {
		return nil, err
	}

	var anns []model.Announcement
	if res.Left != nil {
		anns = append(anns, rt.left(*res.Left)...)
	}

	anns = append(anns, model.Announcement{
		DST:  connID,
		Type: model.EventExistingParticipants,
		Payload: lo.Map(res.Others, func(p model.Participant, _ int) model.PeerInfo {
			return model.NewPeerInfo(p)
		}),
	})
	anns = append(anns, fanout(res.Others, connID, model.EventParticipantJoined, model.NewPeerInfo(res.Self))...)

	rt.logger.Debug().
		Str("connectionID", connID).
		Str("roomID", res.Self.RoomID).
		Str("displayName", res.Self.DisplayName).
		Int("others", len(res.Others)).
		Msg("participant joined room")
	return anns, nil
}

func (rt *Router) LeaveRoom(connID string, req model.LeaveRoomRequest) ([]model.Announcement, error) {
	if _, err := rt.senderIn(connID, req.RoomID); err != nil {
		return nil, err
	}
	return rt.Disconnect(connID), nil
}

// Relay forwards an offer, answer or candidate to a single member of the sender's room.
func (rt *Router) Relay(connID, typ string, req model.SignalRequest) ([]model.Announcement, error) {
	sender, err := rt.senderIn(connID, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !rt.reg.SameRoom(connID, req.TargetConnectionID) {
		return nil, fmt.Errorf("%w: %w", model.ErrNotAuthorized, ErrTargetNotInRoom)
	}
	return []model.Announcement{{
		DST:  req.TargetConnectionID,
		Type: typ,
		Payload: model.Signal{
			Payload:          req.Payload,
			FromConnectionID: connID,
			FromDisplayName:  sender.DisplayName,
		},
	}}, nil
}

func (rt *Router) Chat(connID string, req model.ChatRequest) ([]model.Announcement, error) {
	sender, err := rt.senderIn(connID, req.RoomID)
	if err != nil {
		return nil, err
	}
	msg := strings.TrimSpace(req.Message)
	if err = validate.Var(msg, fmt.Sprintf("required,max=%d", MaxChatMessageLength)); err != nil {
		if msg == "" {
			return nil, fmt.Errorf("%w: message is required", model.ErrInvalidArgument)
		}
		return nil, fmt.Errorf("%w: message must be at most %d characters", model.ErrInvalidArgument, MaxChatMessageLength)
	}
	return rt.broadcast(sender.RoomID, connID, model.EventChatMessage, model.ChatMessage{
		Message:          msg,
		DisplayName:      sender.DisplayName,
		FromConnectionID: connID,
		Timestamp:        rt.now().UTC(),
	}), nil
}

func (rt *Router) Toggle(connID, roomID string, kind model.PresenceKind, enabled bool) ([]model.Announcement, error) {
	if _, err := rt.senderIn(connID, roomID); err != nil {
		return nil, err
	}
	p, ok := rt.reg.SetPresence(connID, kind, enabled)
	if !ok {
		return nil, fmt.Errorf("%w: %w", model.ErrNotFound, ErrNotJoined)
	}

	var (
		typ     string
		payload any
	)
	switch kind {
	case model.PresenceVideo:
		typ = model.EventParticipantToggledVideo
		payload = model.ToggledVideo{
			ConnectionID: p.ConnectionID,
			DisplayName:  p.DisplayName,
			VideoEnabled: p.VideoEnabled,
		}
	default:
		typ = model.EventParticipantToggledAudio
		payload = model.ToggledAudio{
			ConnectionID: p.ConnectionID,
			DisplayName:  p.DisplayName,
			AudioEnabled: p.AudioEnabled,
		}
	}
	return rt.broadcast(p.RoomID, connID, typ, payload), nil
}

// Disconnect evicts the connection and tells the remaining members.
// It is safe to call for connections that never joined.
func (rt *Router) Disconnect(connID string) []model.Announcement {
	p, ok := rt.reg.Leave(connID)
	if !ok {
		return nil
	}
	rt.logger.Debug().
		Str("connectionID", connID).
		Str("roomID", p.RoomID).
		Msg("participant left room")
	return rt.left(*p)
}

func (rt *Router) left(p model.Participant) []model.Announcement {
	return rt.broadcast(p.RoomID, p.ConnectionID, model.EventParticipantLeft, model.ParticipantLeft{
		ConnectionID: p.ConnectionID,
		DisplayName:  p.DisplayName,
	})
}

// senderIn returns the sender's participant record if it is joined to roomID.
func (rt *Router) senderIn(connID, roomID string) (*model.Participant, error) {
	p, ok := rt.reg.Lookup(connID)
	if !ok {
		return nil, fmt.Errorf("%w: %w", model.ErrNotFound, ErrNotJoined)
	}
	if p.RoomID != roomID {
		return nil, fmt.Errorf("%w: %w", model.ErrNotAuthorized, ErrRoomMismatch)
	}
	return p, nil
}

func (rt *Router) broadcast(roomID, src, typ string, payload any) []model.Announcement {
	return fanout(rt.reg.ParticipantsOf(roomID), src, typ, payload)
}

func fanout(members []model.Participant, src, typ string, payload any) []model.Announcement {
	return lo.FilterMap(members, func(p model.Participant, _ int) (model.Announcement, bool) {
		return model.Announcement{
			DST:     p.ConnectionID,
			Type:    typ,
			Payload: payload,
		}, p.ConnectionID != src
	})
}

func errorTo(connID string, err error) model.Announcement {
	return model.Announcement{
		DST:     connID,
		Type:    model.EventError,
		Payload: model.Error{Message: err.Error()},
	}
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidArgument, ErrMalformedPayload)
	}
	return nil
}
