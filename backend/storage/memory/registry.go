package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/adwski/signal-relay/backend/model"
	"github.com/samber/lo"
)

type member struct {
	model.Participant
	seq uint64
}

// Registry keeps connection-to-room and room-to-connections membership.
// A room exists only while it has at least one member.
type Registry struct {
	mx    *sync.RWMutex
	conns map[string]*member
	rooms map[string]map[string]*member
	seq   uint64
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		mx:    &sync.RWMutex{},
		conns: make(map[string]*member),
		rooms: make(map[string]map[string]*member),
		now:   time.Now,
	}
}

// Join binds connection to a room, leaving the previous one if any.
func (r *Registry) Join(connID, roomID, displayName string) (*model.JoinResult, error) {
	roomID = strings.TrimSpace(roomID)
	displayName = strings.TrimSpace(displayName)
	if err := validateJoin(connID, roomID, displayName); err != nil {
		return nil, err
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	res := &model.JoinResult{}
	if left, ok := r.removeLocked(connID); ok {
		res.Left = &left
	}

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]*member)
		r.rooms[roomID] = room
	}
	res.Others = snapshot(room)

	r.seq++
	m := &member{
		Participant: model.Participant{
			ConnectionID: connID,
			RoomID:       roomID,
			DisplayName:  displayName,
			VideoEnabled: true,
			AudioEnabled: true,
			JoinedAt:     r.now().UTC(),
		},
		seq: r.seq,
	}
	room[connID] = m
	r.conns[connID] = m
	res.Self = m.Participant
	return res, nil
}

// Leave removes connection from its room. Calling it for a connection
// that is not joined is a no-op.
func (r *Registry) Leave(connID string) (*model.Participant, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()

	p, ok := r.removeLocked(connID)
	if !ok {
		return nil, false
	}
	return &p, true
}

func (r *Registry) removeLocked(connID string) (model.Participant, bool) {
	m, ok := r.conns[connID]
	if !ok {
		return model.Participant{}, false
	}
	delete(r.conns, connID)
	if room, ok := r.rooms[m.RoomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, m.RoomID)
		}
	}
	return m.Participant, true
}

func (r *Registry) SetPresence(connID string, kind model.PresenceKind, enabled bool) (*model.Participant, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()

	m, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	switch kind {
	case model.PresenceVideo:
		m.VideoEnabled = enabled
	case model.PresenceAudio:
		m.AudioEnabled = enabled
	default:
		return nil, false
	}
	p := m.Participant
	return &p, true
}

func (r *Registry) ParticipantsOf(roomID string) []model.Participant {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return snapshot(r.rooms[roomID])
}

// SameRoom reports whether both connections are joined to the same room.
func (r *Registry) SameRoom(a, b string) bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	ma, ok := r.conns[a]
	if !ok {
		return false
	}
	mb, ok := r.conns[b]
	if !ok {
		return false
	}
	return ma.RoomID == mb.RoomID
}

func (r *Registry) Lookup(connID string) (*model.Participant, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	m, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	p := m.Participant
	return &p, true
}

func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	m, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	return m.RoomID, true
}

// Rooms returns all rooms ordered by id.
func (r *Registry) Rooms() []model.RoomInfo {
	r.mx.RLock()
	defer r.mx.RUnlock()

	ids := lo.Keys(r.rooms)
	slices.Sort(ids)
	return lo.Map(ids, func(id string, _ int) model.RoomInfo {
		return model.RoomInfo{
			ID:           id,
			Participants: snapshot(r.rooms[id]),
		}
	})
}

func (r *Registry) Counts() (rooms, users int) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return len(r.rooms), len(r.conns)
}

func snapshot(room map[string]*member) []model.Participant {
	members := lo.Values(room)
	slices.SortFunc(members, func(a, b *member) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return lo.Map(members, func(m *member, _ int) model.Participant {
		return m.Participant
	})
}
