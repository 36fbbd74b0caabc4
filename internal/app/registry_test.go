package app

import (
	"testing"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

func TestBroadcastDropsOldestForSlowConsumer(t *testing.T) {
	registry := NewRegistry()
	snapshot := domain.Event{Type: domain.EventSessionState}
	client := registry.register("session-1", "p1", false, snapshot)

	// Fill the queue without draining, then overflow it a few times (below
	// the cull threshold); broadcast must never block.
	for i := 1; i < clientQueue; i++ {
		registry.Broadcast("session-1", domain.Event{Type: domain.EventBuzzerPressed})
	}
	for i := 0; i < clientMaxDrops-2; i++ {
		registry.Broadcast("session-1", domain.Event{Type: domain.EventBuzzerPressed})
	}
	registry.Broadcast("session-1", domain.Event{Type: domain.EventQuizEnded})

	if len(client.events) != clientQueue {
		t.Fatalf("queue length = %d, want %d", len(client.events), clientQueue)
	}

	// The newest event survived the drops and the client is still registered.
	var last domain.Event
	for len(client.events) > 0 {
		last = <-client.events
	}
	if last.Type != domain.EventQuizEnded {
		t.Fatalf("last queued event = %q, want quiz_ended", last.Type)
	}
	if registry.Connections("session-1") != 1 {
		t.Fatalf("client culled below the drop threshold")
	}
}

func TestBroadcastCullsPersistentlySlowConsumer(t *testing.T) {
	registry := NewRegistry()
	snapshot := domain.Event{Type: domain.EventSessionState}
	client := registry.register("session-1", "p1", false, snapshot)

	for i := 1; i < clientQueue; i++ {
		registry.Broadcast("session-1", domain.Event{Type: domain.EventBuzzerPressed})
	}
	for i := 0; i < clientMaxDrops; i++ {
		registry.Broadcast("session-1", domain.Event{Type: domain.EventBuzzerPressed})
	}

	if registry.Connections("session-1") != 0 {
		t.Fatalf("persistently overflowing client not culled")
	}

	// Its event stream was closed after the enqueued backlog.
	drained := 0
	for range client.events {
		drained++
	}
	if drained != clientQueue {
		t.Fatalf("drained %d events, want %d", drained, clientQueue)
	}

	// Culling is equivalent to unregistering; a later explicit unregister
	// is a no-op.
	registry.Unregister(client)
}

func TestRegistryReclaimsEmptyHubs(t *testing.T) {
	registry := NewRegistry()
	snapshot := domain.Event{Type: domain.EventSessionState}

	a := registry.register("session-1", "p1", false, snapshot)
	b := registry.register("session-1", "p2", false, snapshot)

	registry.Unregister(a)
	if _, ok := registry.hub("session-1"); !ok {
		t.Fatalf("hub dropped while a connection remains")
	}

	registry.Unregister(b)
	if _, ok := registry.hub("session-1"); ok {
		t.Fatalf("empty hub not reclaimed")
	}
}

func TestBroadcastToUnknownSessionIsNoOp(t *testing.T) {
	registry := NewRegistry()
	registry.Broadcast("missing", domain.Event{Type: domain.EventQuizEnded})
}
