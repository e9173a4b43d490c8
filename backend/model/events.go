package model

import (
	"encoding/json"
	"time"
)

// Inbound event types sent by clients.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventCandidate   = "candidate"
	EventChatMessage = "chat-message"
	EventToggleVideo = "toggle-video"
	EventToggleAudio = "toggle-audio"
)

// Outbound event types sent by server.
const (
	EventConnected               = "connected"
	EventExistingParticipants    = "existing-participants"
	EventParticipantJoined       = "participant-joined"
	EventParticipantLeft         = "participant-left"
	EventParticipantToggledVideo = "participant-toggled-video"
	EventParticipantToggledAudio = "participant-toggled-audio"
	EventError                   = "error"
)

// Event is an inbound message. Payload is decoded by the handler of its type.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Announcement is an outbound message addressed to a single connection.
type Announcement struct {
	DST     string `json:"-"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type JoinRoomRequest struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

// SignalRequest carries an offer, answer or candidate. Payload is never inspected.
type SignalRequest struct {
	TargetConnectionID string          `json:"targetConnectionId"`
	RoomID             string          `json:"roomId"`
	Payload            json.RawMessage `json:"payload"`
}

type ChatRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type ToggleVideoRequest struct {
	RoomID       string `json:"roomId"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type ToggleAudioRequest struct {
	RoomID       string `json:"roomId"`
	AudioEnabled bool   `json:"audioEnabled"`
}

type Connected struct {
	ConnectionID string `json:"connectionId"`
}

type PeerInfo struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	VideoEnabled bool   `json:"videoEnabled"`
	AudioEnabled bool   `json:"audioEnabled"`
}

type ParticipantLeft struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

type Signal struct {
	Payload          json.RawMessage `json:"payload"`
	FromConnectionID string          `json:"fromConnectionId"`
	FromDisplayName  string          `json:"fromDisplayName,omitempty"`
}

type ChatMessage struct {
	Message          string    `json:"message"`
	DisplayName      string    `json:"displayName"`
	FromConnectionID string    `json:"fromConnectionId"`
	Timestamp        time.Time `json:"timestamp"`
}

type ToggledVideo struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type ToggledAudio struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	AudioEnabled bool   `json:"audioEnabled"`
}

type Error struct {
	Message string `json:"message"`
}

func NewPeerInfo(p Participant) PeerInfo {
	return PeerInfo{
		ConnectionID: p.ConnectionID,
		DisplayName:  p.DisplayName,
		VideoEnabled: p.VideoEnabled,
		AudioEnabled: p.AudioEnabled,
	}
}

var inboundEvents = map[string]struct{}{
	EventJoinRoom:    {},
	EventLeaveRoom:   {},
	EventOffer:       {},
	EventAnswer:      {},
	EventCandidate:   {},
	EventChatMessage: {},
	EventToggleVideo: {},
	EventToggleAudio: {},
}

// IsInboundEvent reports whether typ is an event type clients may send.
func IsInboundEvent(typ string) bool {
	_, ok := inboundEvents[typ]
	return ok
}
