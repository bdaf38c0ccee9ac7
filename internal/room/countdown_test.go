package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoid/ettmulti-server/internal/ws"
)

func TestEnableCountdown(t *testing.T) {
	tests := []struct {
		name        string
		limit       int
		pre         func(r *Room)
		wantChanged bool
		wantNotice  string
		wantOn      bool
	}{
		{
			name:        "zero while off",
			limit:       0,
			wantChanged: false,
			wantNotice:  "Countdown is not enabled",
			wantOn:      false,
		},
		{
			name:        "zero while on disables",
			limit:       0,
			pre:         func(r *Room) { r.Countdown = true },
			wantChanged: true,
			wantNotice:  "Countdown disabled",
			wantOn:      false,
		},
		{
			name:        "below minimum rejected",
			limit:       1,
			wantChanged: false,
			wantNotice:  "between 2 and 20",
			wantOn:      false,
		},
		{
			name:        "above maximum rejected",
			limit:       21,
			wantChanged: false,
			wantNotice:  "between 2 and 20",
			wantOn:      false,
		},
		{
			name:        "valid limit enables",
			limit:       7,
			wantChanged: true,
			wantNotice:  "Countdown enabled",
			wantOn:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRoom(newTestPlayer("alice"))
			if tt.pre != nil {
				tt.pre(r)
			}

			notice, changed := r.EnableCountdown(tt.limit)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Contains(t, notice, tt.wantNotice)
			assert.Equal(t, tt.wantOn, r.Countdown)
			if tt.wantOn {
				assert.Equal(t, tt.limit, r.TimerLimit)
			}
		})
	}
}

func TestStartTimer_TicksThenFires(t *testing.T) {
	r := newTestRoom(newTestPlayer("alice"))
	r.TimerLimit = 2

	ticks := make(chan int, 4)
	done := make(chan struct{})
	started := r.StartTimer(
		func(remaining int) { ticks <- remaining },
		func() { close(done) },
	)
	require.True(t, started)
	assert.True(t, r.TimerRunning())

	select {
	case <-done:
	case <-time.After(4 * time.Second):
		t.Fatal("countdown never fired")
	}
	assert.Equal(t, 1, <-ticks)
	assert.False(t, r.TimerRunning())
}

func TestStartTimer_SecondStartRejected(t *testing.T) {
	r := newTestRoom(newTestPlayer("alice"))
	require.True(t, r.StartTimer(func(int) {}, func() {}))

	assert.False(t, r.StartTimer(func(int) {}, func() {}), "only one countdown per room")

	r.StopTimer()
}

func TestStopTimer(t *testing.T) {
	alice := newTestPlayer("alice")
	r := newTestRoom(alice)

	assert.False(t, r.StopTimer(), "nothing to stop")

	done := make(chan struct{})
	require.True(t, r.StartTimer(func(int) {}, func() { close(done) }))
	sentMessages(t, alice)

	assert.True(t, r.StopTimer())
	assert.False(t, r.TimerRunning())
	assertChatContains(t, sentMessages(t, alice), "Countdown cancelled")

	select {
	case <-done:
		t.Fatal("cancelled countdown must not fire")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestStartChart_CountdownDefersStart(t *testing.T) {
	alice := newTestPlayer("alice")
	bob := newTestPlayer("bob")
	r := newTestRoom(alice, bob)
	bob.ReadyState = true
	r.Countdown = true
	r.TimerLimit = 5
	r.SelectChart(alice, testPayload())
	sentMessages(t, alice)
	sentMessages(t, bob)

	r.StartChart(alice, testPayload())

	assert.Equal(t, StateSelecting, r.State, "the start waits for the countdown")
	assert.True(t, r.TimerRunning())
	assertChatContains(t, sentMessages(t, alice), "Starting in 5 seconds")
	assert.Empty(t, messagesOfType(sentMessages(t, bob), ws.TypeStartChart))

	r.StopTimer()
	assert.Equal(t, StateSelecting, r.State)
	assert.False(t, r.Playing)
}

func TestStartChart_SecondStartDuringCountdownKeepsFlags(t *testing.T) {
	alice := newTestPlayer("alice")
	bob := newTestPlayer("bob")
	r := newTestRoom(alice, bob)
	bob.ReadyState = true
	r.Countdown = true
	r.TimerLimit = 5
	r.SelectChart(alice, testPayload())
	r.StartChart(alice, testPayload())
	require.True(t, r.TimerRunning())

	bob.ReadyState = true
	r.ForceStart = true
	sentMessages(t, alice)

	r.StartChart(alice, testPayload())

	assert.True(t, bob.ReadyState, "a rejected start must not consume ready flags")
	assert.True(t, r.ForceStart, "a rejected start must not consume force start")
	assertChatContains(t, sentMessages(t, alice), "There is already a countdown running")

	r.StopTimer()
}
