package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/harness"
	"github.com/roach88/tabledog/internal/store"
)

// Watch mode: events added after the download are picked up by the poll
// loop, and cancellation between cycles shuts the engine down cleanly.
func TestWatchAppliesNewEvents(t *testing.T) {
	fake := harness.New()

	s, err := store.Open(store.SQLite{}, t.TempDir()+"/mirror.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e := New(s, fake, Options{Watch: true, PollFreq: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	// Let the download finish, then publish an event.
	require.Eventually(t, func() bool {
		return e.State() == StateIdle || e.State() == StateApplying
	}, 2*time.Second, 5*time.Millisecond)

	fake.AddEvent("evt_1", "customer.created", 1620000100, customerPayloadNoChildren("cus_live"))

	require.Eventually(t, func() bool {
		return rowExists(t, s, "customers", "cus_live")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop on cancellation")
	}
}

func TestStateMachineOneShot(t *testing.T) {
	fake := harness.New()
	e, _ := newTestEngine(t, fake)

	assert.Equal(t, StateStarting, e.State())
	dl(t, e)
	assert.Equal(t, StateIdle, e.State())
}
