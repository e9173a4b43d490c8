package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct{ rooms, users int }

func (f fakeCounter) Counts() (int, int) { return f.rooms, f.users }

func TestRelay_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.Event("offer")
	m.Event("offer")
	m.Dropped(DropNotAuthorized)
	m.Delivered(3)
	m.Delivered(0)
	m.Panic()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.connections))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.events.WithLabelValues("offer")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dropped.WithLabelValues(DropNotAuthorized)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.delivered))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.panics))
}

func TestRelay_NilIsNoop(t *testing.T) {
	var m *Relay
	assert.NotPanics(t, func() {
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.Event("chat-message")
		m.Dropped(DropQueueFull)
		m.Delivered(1)
		m.Panic()
	})
}

func TestRegisterRoomGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterRoomGauges(reg, fakeCounter{rooms: 2, users: 5})

	n, err := testutil.GatherAndCount(reg, "signal_relay_rooms", "signal_relay_participants")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
