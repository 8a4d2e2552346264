package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stageDone struct {
	Stage    string
	Profiles int
}

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[stageDone]()
	ch := bus.Subscribe()

	bus.Publish(stageDone{Stage: "mobility", Profiles: 3})

	ev := <-ch
	require.Equal(t, "mobility", ev.Stage)
	require.Equal(t, 3, ev.Profiles)
	bus.Unsubscribe(ch)
}

func TestTypedBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()

	// Buffer is 8; the publisher must never block on a slow subscriber.
	for i := 0; i < 20; i++ {
		bus.Publish(i)
	}

	require.Len(t, ch, 8)
	require.Equal(t, 0, <-ch)
}

func TestTypedBusFansOut(t *testing.T) {
	bus := NewTyped[string]()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish("solve")

	require.Equal(t, "solve", <-a)
	require.Equal(t, "solve", <-b)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	bus.Close()

	_, ok := <-ch
	require.False(t, ok, "subscriber channel closed")

	bus.Publish(1) // no-op after close
	require.NotPanics(t, func() { bus.Unsubscribe(ch) })
	require.NotPanics(t, bus.Close)
}

func TestTypedBusSubscribeAfterClose(t *testing.T) {
	bus := NewTyped[int]()
	bus.Close()

	ch := bus.Subscribe()
	_, ok := <-ch
	require.False(t, ok)
}
