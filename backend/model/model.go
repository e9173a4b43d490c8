package model

import (
	"time"
)

type PresenceKind string

const (
	PresenceVideo PresenceKind = "video"
	PresenceAudio PresenceKind = "audio"
)

// Participant is a connection's state while it is joined to a room.
type Participant struct {
	ConnectionID string    `json:"connectionId"`
	RoomID       string    `json:"roomId"`
	DisplayName  string    `json:"displayName"`
	VideoEnabled bool      `json:"videoEnabled"`
	AudioEnabled bool      `json:"audioEnabled"`
	JoinedAt     time.Time `json:"joinedAt"`
}

type RoomInfo struct {
	ID           string        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

// JoinResult describes the outcome of binding a connection to a room.
type JoinResult struct {
	Self   Participant
	Others []Participant // other members at the moment of join, in join order
	Left   *Participant  // previous membership removed by this join, if any
}

// Wire is the outbound queue of a single connection.
type Wire struct {
	TX chan Announcement
}

func NewWire(size int) Wire {
	if size < 1 {
		size = 1
	}
	return Wire{
		TX: make(chan Announcement, size),
	}
}
