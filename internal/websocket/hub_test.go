package websocket

import (
	"context"
	"testing"
	"time"

	"SafeHerAPI/internal/logger"
)

func TestBroadcastReachesRegisteredClients(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	client := &Client{hub: h, send: make(chan Message, 1)}
	h.register <- client

	h.Broadcast(TypeContact, "payload")

	select {
	case msg := <-client.send:
		if msg.Type != TypeContact {
			t.Fatalf("message type = %q, want %q", msg.Type, TypeContact)
		}
		if msg.Payload != "payload" {
			t.Fatalf("payload = %v, want %q", msg.Payload, "payload")
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached client")
	}
}

func TestBroadcastAfterShutdownDoesNotBlock(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub never shut down")
	}

	returned := make(chan struct{})
	go func() {
		h.Broadcast(TypeAlert, "late")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after hub shutdown")
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	// Zero-capacity send channel: the first broadcast cannot be
	// buffered, so the hub must evict the client instead of stalling.
	client := &Client{hub: h, send: make(chan Message)}
	h.register <- client

	h.Broadcast(TypeReport, "first")
	h.Broadcast(TypeReport, "second")

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel closed for slow client")
		}
	case <-time.After(time.Second):
		t.Fatal("slow client was never evicted")
	}
}
