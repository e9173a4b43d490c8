package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/adwski/signal-relay/backend/mocks"
	"github.com/adwski/signal-relay/backend/model"
	"github.com/adwski/signal-relay/backend/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T) (*Router, *memory.Registry) {
	t.Helper()
	logger := zerolog.Nop()
	reg := memory.NewRegistry()
	return NewRouter(RouterConfig{Registry: reg, Logger: &logger}), reg
}

func event(t *testing.T, typ string, payload any) model.Event {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return model.Event{Type: typ, Payload: b}
}

func byDST(anns []model.Announcement) map[string][]model.Announcement {
	out := make(map[string][]model.Announcement)
	for _, ann := range anns {
		out[ann.DST] = append(out[ann.DST], ann)
	}
	return out
}

func join(t *testing.T, rt *Router, connID, roomID, name string) []model.Announcement {
	t.Helper()
	return rt.Dispatch(connID, event(t, model.EventJoinRoom, model.JoinRoomRequest{RoomID: roomID, DisplayName: name}))
}

func TestRouter_Scenario(t *testing.T) {
	rt, reg := newTestRouter(t)

	// Alice joins an empty room.
	anns := join(t, rt, "A", "blue-room", "Alice")
	require.Len(t, anns, 1)
	assert.Equal(t, "A", anns[0].DST)
	assert.Equal(t, model.EventExistingParticipants, anns[0].Type)
	assert.Empty(t, anns[0].Payload.([]model.PeerInfo))
	b, err := json.Marshal(anns[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"existing-participants","payload":[]}`, string(b))

	// Bob joins and sees Alice, Alice sees Bob arriving.
	out := byDST(join(t, rt, "B", "blue-room", "Bob"))
	require.Len(t, out["B"], 1)
	assert.Equal(t, model.EventExistingParticipants, out["B"][0].Type)
	assert.Equal(t, []model.PeerInfo{{
		ConnectionID: "A",
		DisplayName:  "Alice",
		VideoEnabled: true,
		AudioEnabled: true,
	}}, out["B"][0].Payload.([]model.PeerInfo))
	require.Len(t, out["A"], 1)
	assert.Equal(t, model.EventParticipantJoined, out["A"][0].Type)
	assert.Equal(t, model.PeerInfo{
		ConnectionID: "B",
		DisplayName:  "Bob",
		VideoEnabled: true,
		AudioEnabled: true,
	}, out["A"][0].Payload)

	// Alice turns off her camera.
	anns = rt.Dispatch("A", event(t, model.EventToggleVideo, model.ToggleVideoRequest{RoomID: "blue-room", VideoEnabled: false}))
	require.Len(t, anns, 1)
	assert.Equal(t, "B", anns[0].DST)
	assert.Equal(t, model.EventParticipantToggledVideo, anns[0].Type)
	assert.Equal(t, model.ToggledVideo{ConnectionID: "A", DisplayName: "Alice", VideoEnabled: false}, anns[0].Payload)

	// Alice disconnects.
	anns = rt.Disconnect("A")
	require.Len(t, anns, 1)
	assert.Equal(t, "B", anns[0].DST)
	assert.Equal(t, model.EventParticipantLeft, anns[0].Type)
	assert.Equal(t, model.ParticipantLeft{ConnectionID: "A", DisplayName: "Alice"}, anns[0].Payload)

	members := reg.ParticipantsOf("blue-room")
	require.Len(t, members, 1)
	assert.Equal(t, "Bob", members[0].DisplayName)

	// Disconnect is idempotent.
	assert.Empty(t, rt.Disconnect("A"))
}

func TestRouter_JoinInvalid(t *testing.T) {
	rt, reg := newTestRouter(t)
	join(t, rt, "A", "room", "Alice")

	anns := join(t, rt, "B", "room", strings.Repeat("x", 31))
	require.Len(t, anns, 1)
	assert.Equal(t, "B", anns[0].DST)
	assert.Equal(t, model.EventError, anns[0].Type)
	assert.Contains(t, anns[0].Payload.(model.Error).Message, "display name")
	assert.Len(t, reg.ParticipantsOf("room"), 1)
}

func TestRouter_JoinAnotherRoomLeavesFirst(t *testing.T) {
	rt, reg := newTestRouter(t)
	join(t, rt, "A", "r1", "Alice")
	join(t, rt, "B", "r1", "Bob")
	join(t, rt, "C", "r2", "Carol")

	anns := join(t, rt, "A", "r2", "Alice")
	require.Len(t, anns, 3)

	assert.Equal(t, "B", anns[0].DST)
	assert.Equal(t, model.EventParticipantLeft, anns[0].Type)
	assert.Equal(t, "A", anns[1].DST)
	assert.Equal(t, model.EventExistingParticipants, anns[1].Type)
	assert.Equal(t, "C", anns[2].DST)
	assert.Equal(t, model.EventParticipantJoined, anns[2].Type)

	assert.False(t, reg.SameRoom("A", "B"))
	assert.True(t, reg.SameRoom("A", "C"))
}

func TestRouter_Relay(t *testing.T) {
	payload := json.RawMessage(`{"type":"offer","sdp":"v=0\r\n"}`)

	tests := []struct {
		name    string
		sender  string
		typ     string
		target  string
		roomID  string
		wantDST string
	}{
		{name: "offer", sender: "A", typ: model.EventOffer, target: "B", roomID: "blue-room", wantDST: "B"},
		{name: "answer", sender: "B", typ: model.EventAnswer, target: "A", roomID: "blue-room", wantDST: "A"},
		{name: "candidate", sender: "A", typ: model.EventCandidate, target: "B", roomID: "blue-room", wantDST: "B"},
		{name: "target in other room", sender: "A", typ: model.EventOffer, target: "D", roomID: "blue-room"},
		{name: "forged room id", sender: "A", typ: model.EventOffer, target: "B", roomID: "red-room"},
		{name: "sender not joined", sender: "C", typ: model.EventOffer, target: "B", roomID: "blue-room"},
		{name: "unknown target", sender: "A", typ: model.EventCandidate, target: "ghost", roomID: "blue-room"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newTestRouter(t)
			join(t, rt, "A", "blue-room", "Alice")
			join(t, rt, "B", "blue-room", "Bob")
			join(t, rt, "D", "red-room", "Dave")

			anns := rt.Dispatch(tt.sender, event(t, tt.typ, model.SignalRequest{
				TargetConnectionID: tt.target,
				RoomID:             tt.roomID,
				Payload:            payload,
			}))
			if tt.wantDST == "" {
				assert.Empty(t, anns)
				return
			}
			require.Len(t, anns, 1)
			assert.Equal(t, tt.wantDST, anns[0].DST)
			assert.Equal(t, tt.typ, anns[0].Type)
			sig := anns[0].Payload.(model.Signal)
			assert.JSONEq(t, string(payload), string(sig.Payload))
			assert.Equal(t, tt.sender, sig.FromConnectionID)
			assert.NotEmpty(t, sig.FromDisplayName)
		})
	}
}

func TestRouter_Chat(t *testing.T) {
	rt, _ := newTestRouter(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rt.now = func() time.Time { return fixed }

	join(t, rt, "A", "room", "Alice")
	join(t, rt, "B", "room", "Bob")
	join(t, rt, "C", "room", "Carol")

	anns := rt.Dispatch("A", event(t, model.EventChatMessage, model.ChatRequest{RoomID: "room", Message: "  hello  "}))
	out := byDST(anns)
	assert.Empty(t, out["A"], "sender never gets its own message")
	require.Len(t, out["B"], 1)
	require.Len(t, out["C"], 1)
	assert.Equal(t, model.ChatMessage{
		Message:          "hello",
		DisplayName:      "Alice",
		FromConnectionID: "A",
		Timestamp:        fixed,
	}, out["B"][0].Payload)
}

func TestRouter_ChatRejects(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		roomID    string
		wantError bool
	}{
		{name: "501 characters", message: strings.Repeat("a", MaxChatMessageLength+1), roomID: "room", wantError: true},
		{name: "blank", message: "   ", roomID: "room", wantError: true},
		{name: "wrong room", message: "hi", roomID: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newTestRouter(t)
			join(t, rt, "A", "room", "Alice")
			join(t, rt, "B", "room", "Bob")

			anns := rt.Dispatch("A", event(t, model.EventChatMessage, model.ChatRequest{RoomID: tt.roomID, Message: tt.message}))
			if !tt.wantError {
				assert.Empty(t, anns)
				return
			}
			require.Len(t, anns, 1)
			assert.Equal(t, "A", anns[0].DST)
			assert.Equal(t, model.EventError, anns[0].Type)
		})
	}
}

func TestRouter_ChatMaxLength(t *testing.T) {
	rt, _ := newTestRouter(t)
	join(t, rt, "A", "room", "Alice")
	join(t, rt, "B", "room", "Bob")

	anns := rt.Dispatch("A", event(t, model.EventChatMessage, model.ChatRequest{
		RoomID:  "room",
		Message: strings.Repeat("я", MaxChatMessageLength),
	}))
	require.Len(t, anns, 1)
	assert.Equal(t, "B", anns[0].DST)
	assert.Equal(t, model.EventChatMessage, anns[0].Type)
}

func TestRouter_ToggleAudio(t *testing.T) {
	rt, reg := newTestRouter(t)
	join(t, rt, "A", "room", "Alice")
	join(t, rt, "B", "room", "Bob")

	anns := rt.Dispatch("B", event(t, model.EventToggleAudio, model.ToggleAudioRequest{RoomID: "room", AudioEnabled: false}))
	require.Len(t, anns, 1)
	assert.Equal(t, "A", anns[0].DST)
	assert.Equal(t, model.ToggledAudio{ConnectionID: "B", DisplayName: "Bob", AudioEnabled: false}, anns[0].Payload)

	p, ok := reg.Lookup("B")
	require.True(t, ok)
	assert.False(t, p.AudioEnabled)
	assert.True(t, p.VideoEnabled)

	// a later joiner sees the current flags
	out := byDST(join(t, rt, "C", "room", "Carol"))
	peers := out["C"][0].Payload.([]model.PeerInfo)
	require.Len(t, peers, 2)
	assert.False(t, peers[1].AudioEnabled)
}

func TestRouter_ToggleNotJoined(t *testing.T) {
	rt, _ := newTestRouter(t)
	anns := rt.Dispatch("A", event(t, model.EventToggleVideo, model.ToggleVideoRequest{RoomID: "room"}))
	assert.Empty(t, anns)
}

func TestRouter_LeaveRoom(t *testing.T) {
	rt, reg := newTestRouter(t)
	join(t, rt, "A", "room", "Alice")
	join(t, rt, "B", "room", "Bob")

	assert.Empty(t, rt.Dispatch("A", event(t, model.EventLeaveRoom, model.LeaveRoomRequest{RoomID: "other"})))

	anns := rt.Dispatch("A", event(t, model.EventLeaveRoom, model.LeaveRoomRequest{RoomID: "room"}))
	require.Len(t, anns, 1)
	assert.Equal(t, "B", anns[0].DST)
	assert.Equal(t, model.EventParticipantLeft, anns[0].Type)

	_, joined := reg.RoomOf("A")
	assert.False(t, joined)
}

func TestRouter_BadInput(t *testing.T) {
	rt, _ := newTestRouter(t)

	anns := rt.Dispatch("A", model.Event{Type: "self-destruct"})
	require.Len(t, anns, 1)
	assert.Equal(t, model.EventError, anns[0].Type)
	assert.Contains(t, anns[0].Payload.(model.Error).Message, "self-destruct")

	anns = rt.Dispatch("A", model.Event{Type: model.EventJoinRoom, Payload: json.RawMessage(`[1,2`)})
	require.Len(t, anns, 1)
	assert.Equal(t, "A", anns[0].DST)
	assert.Equal(t, model.EventError, anns[0].Type)

	anns = rt.Dispatch("A", model.Event{Type: model.EventChatMessage})
	require.Len(t, anns, 1)
	assert.Equal(t, model.EventError, anns[0].Type)
}

func TestRouter_RelayChecksRoomBeforeTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)
	logger := zerolog.Nop()
	rt := NewRouter(RouterConfig{Registry: reg, Logger: &logger})

	reg.EXPECT().Lookup("A").Return(&model.Participant{ConnectionID: "A", RoomID: "blue-room"}, true)
	// SameRoom must not be consulted when the room id is stale.
	reg.EXPECT().SameRoom(gomock.Any(), gomock.Any()).Times(0)

	anns := rt.Dispatch("A", event(t, model.EventOffer, model.SignalRequest{
		TargetConnectionID: "B",
		RoomID:             "red-room",
	}))
	assert.Empty(t, anns)
}
