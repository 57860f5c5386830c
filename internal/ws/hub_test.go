package ws

import (
	"context"
	"testing"
	"time"
)

func newHubForTest(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.stopped
	})
	return hub
}

func registerClient(t *testing.T, hub *Hub, buffer int) *Client {
	t.Helper()
	c := &Client{hub: hub, send: make(chan Message, buffer)}
	hub.register <- c
	waitFor(t, func() bool { return hub.ConnectedCount() > 0 })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestHubBroadcast(t *testing.T) {
	t.Parallel()

	hub := newHubForTest(t)
	c := registerClient(t, hub, 4)

	hub.Broadcast(Message{Type: MsgNotification, Payload: "hello"})

	select {
	case msg := <-c.send:
		if msg.Type != MsgNotification || msg.Payload != "hello" {
			t.Errorf("received %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never arrived")
	}
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	t.Parallel()

	hub := newHubForTest(t)
	registerClient(t, hub, 1)

	// Fill the buffer, then one more: the second broadcast must evict the
	// client rather than block.
	hub.Broadcast(Message{Type: MsgPing})
	hub.Broadcast(Message{Type: MsgPing})

	waitFor(t, func() bool { return hub.ConnectedCount() == 0 })
}

func TestHubBroadcastDuringClientChurn(t *testing.T) {
	t.Parallel()

	hub := newHubForTest(t)

	// Clients connect and disconnect while broadcasts are in flight. Every
	// send channel close happens on the Run goroutine, so no broadcast can
	// hit a closed channel no matter how the operations interleave.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			c := &Client{hub: hub, send: make(chan Message, 1)}
			hub.register <- c
			hub.unregister <- c
		}
	}()

	for {
		select {
		case <-done:
			waitFor(t, func() bool { return hub.ConnectedCount() == 0 })
			return
		default:
			hub.Broadcast(Message{Type: MsgPing})
		}
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := registerClient(t, hub, 1)

	cancel()
	<-hub.stopped

	if _, ok := <-c.send; ok {
		t.Error("send channel still open after shutdown")
	}
	if hub.ConnectedCount() != 0 {
		t.Errorf("ConnectedCount() = %d after shutdown", hub.ConnectedCount())
	}
}
