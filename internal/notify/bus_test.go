package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	calls int
	err   error
}

func (p *recordingPublisher) Publish(context.Context) error {
	p.calls++
	return p.err
}

func received(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestBus_NotifyWakesEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Notify(context.Background())
	require.True(t, received(a))
	require.True(t, received(b))
	require.False(t, received(a))
}

func TestBus_BurstsCoalesce(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		bus.Deliver()
	}
	require.True(t, received(ch))
	require.False(t, received(ch))
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe()
	require.Equal(t, 1, bus.Subscribers())

	cancel()
	cancel()
	_, open := <-ch
	require.False(t, open)
	require.Zero(t, bus.Subscribers())

	bus.Notify(context.Background())
}

func TestBus_PublishersOnlyOnNotify(t *testing.T) {
	bus := NewBus(nil)
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("offline")}
	bus.AddPublisher(ok)
	bus.AddPublisher(failing)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Notify(context.Background())
	require.Equal(t, 1, ok.calls)
	require.Equal(t, 1, failing.calls)
	require.True(t, received(ch))

	bus.Deliver()
	require.Equal(t, 1, ok.calls)
}

func TestRelay_IgnoresOwnOrigin(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()
	r := &Relay{origin: "self", bus: bus, logger: bus.logger}

	r.handle(&nats.Msg{Subject: DefaultSubject, Data: []byte("self")})
	require.False(t, received(ch))

	r.handle(&nats.Msg{Subject: DefaultSubject, Data: []byte("other")})
	require.True(t, received(ch))
}
