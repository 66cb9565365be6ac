package alert

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	d := NewDispatcher(WithClock(mock), WithTTL(10*time.Second))
	t.Cleanup(d.Close)
	return d, mock
}

func drain(d *Dispatcher) []Message {
	var out []Message
	for {
		select {
		case m := <-d.Updates():
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestAlertClearsAfterTTL(t *testing.T) {
	d, mock := newTestDispatcher(t)
	shown := d.Success("Game g1 created. Challenge submitted!")
	require.True(t, shown.Status)

	mock.Add(9 * time.Second)
	cur, ok := d.Current()
	require.True(t, ok)
	require.Equal(t, shown.ID, cur.ID)

	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		_, ok := d.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)

	updates := drain(d)
	require.Len(t, updates, 2)
	require.True(t, updates[0].Status)
	require.False(t, updates[1].Status)
	require.Equal(t, shown.ID, updates[1].ID)
}

func TestSupersedeCancelsPriorTimerOnce(t *testing.T) {
	d, mock := newTestDispatcher(t)
	first := d.Info("first")
	mock.Add(6 * time.Second)
	second := d.Failure("second")
	require.NotEqual(t, first.ID, second.ID)

	// The first alert's deadline passes: nothing may clear.
	mock.Add(5 * time.Second)
	cur, ok := d.Current()
	require.True(t, ok)
	require.Equal(t, second.ID, cur.ID)

	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool {
		_, ok := d.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)

	mock.Add(time.Minute)
	var clears int
	for _, m := range drain(d) {
		if !m.Status {
			clears++
			require.Equal(t, second.ID, m.ID)
		}
	}
	require.Equal(t, 1, clears)
}

func TestDismiss(t *testing.T) {
	d, mock := newTestDispatcher(t)
	d.Info("hello")
	d.Dismiss()
	_, ok := d.Current()
	require.False(t, ok)

	d.Dismiss()
	mock.Add(time.Minute)
	updates := drain(d)
	require.Len(t, updates, 2)
}

func TestSlowReaderKeepsLatest(t *testing.T) {
	d, _ := newTestDispatcher(t)
	for i := range 20 {
		d.Info(string(rune('a' + i)))
	}
	updates := drain(d)
	require.NotEmpty(t, updates)
	require.Equal(t, string(rune('a'+19)), updates[len(updates)-1].Text)
}

func TestShowAfterClose(t *testing.T) {
	d := NewDispatcher(WithClock(clock.NewMock()))
	d.Close()
	require.False(t, d.Info("late").Status)
	d.Close()
}
