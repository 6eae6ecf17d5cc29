package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusNotifiesInRegistrationOrder(t *testing.T) {
	bus := NewBus(nil, nil)

	var order []string
	bus.Subscribe(func() { order = append(order, "first") })
	bus.Subscribe(func() { order = append(order, "second") })
	bus.Subscribe(func() { order = append(order, "third") })

	bus.Notify()
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBusUnsubscribeRemovesExactlyOne(t *testing.T) {
	bus := NewBus(nil, nil)

	var calls int
	unsubscribe := bus.Subscribe(func() { calls++ })
	bus.Subscribe(func() { calls++ })

	unsubscribe()
	unsubscribe() // second call is a no-op

	bus.Notify()
	require.Equal(t, 1, calls)
	require.Equal(t, 1, bus.Len())
}

func TestBusIsolatesPanickingObserver(t *testing.T) {
	bus := NewBus(nil, nil)

	var reached bool
	bus.Subscribe(func() { panic("broken observer") })
	bus.Subscribe(func() { reached = true })

	require.NotPanics(t, func() { bus.Notify() })
	require.True(t, reached)
}
