//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package service

import "github.com/adwski/signal-relay/backend/model"

type (
	Registry interface {
		Join(connID, roomID, displayName string) (*model.JoinResult, error)
		Leave(connID string) (*model.Participant, bool)
		SetPresence(connID string, kind model.PresenceKind, enabled bool) (*model.Participant, bool)
		SameRoom(a, b string) bool
		Lookup(connID string) (*model.Participant, bool)
		ParticipantsOf(roomID string) []model.Participant
	}

	Switch interface {
		Connect(endpoint string, wire model.Wire)
		Disconnect(endpoint string)
		Forward(anns ...model.Announcement) int
	}
)
