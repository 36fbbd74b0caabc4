package app

import (
	"sync"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

// clientQueue bounds each connection's outbound event queue. A persistently
// slow consumer loses its oldest events instead of back-pressuring the
// whole session; after clientMaxDrops consecutive overflows it is culled
// from the hub entirely.
const (
	clientQueue    = 32
	clientMaxDrops = 8
)

// Client is one live connection registered to a session. The transport
// layer drains Events and writes each one to the socket.
type Client struct {
	sessionID     string
	participantID string
	moderator     bool
	events        chan domain.Event
	closed        bool // guarded by the owning hub's mutex
	drops         int  // consecutive queue overflows, guarded by the hub's mutex
}

func (c *Client) Events() <-chan domain.Event { return c.events }
func (c *Client) SessionID() string           { return c.sessionID }
func (c *Client) ParticipantID() string       { return c.participantID }
func (c *Client) Moderator() bool             { return c.moderator }

// sessionHub owns everything shared by one session's connections: the
// connection set and the buzz arbitration state for the current question.
// One mutex per hub keeps unrelated sessions uncontended.
type sessionHub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}

	// Buzz state, cleared on question advance or reset_buzzers. seeded
	// marks that the state reflects persisted responses for the current
	// question, so a hub rebuilt after all connections dropped does not
	// hand out duplicate ranks.
	seeded   bool
	buzzSeq  int
	buzzed   map[string]struct{}
	holder   string // participant currently allowed to answer
	answered bool
}

func newSessionHub() *sessionHub {
	return &sessionHub{
		clients: make(map[*Client]struct{}),
		buzzed:  make(map[string]struct{}),
	}
}

func (h *sessionHub) broadcastLocked(ev domain.Event) {
	for c := range h.clients {
		select {
		case c.events <- ev:
			c.drops = 0
			continue
		default:
		}

		// Queue full: drop the oldest event, then try once more.
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- ev:
		default:
		}

		// A consumer that keeps overflowing is dead weight; cull it so the
		// hub stops queueing events nobody reads.
		c.drops++
		if c.drops >= clientMaxDrops && !c.closed {
			delete(h.clients, c)
			close(c.events)
			c.closed = true
		}
	}
}

func (h *sessionHub) clearBuzzLocked(seeded bool) {
	h.seeded = seeded
	h.buzzSeq = 0
	h.buzzed = make(map[string]struct{})
	h.holder = ""
	h.answered = false
}

// Registry maps session IDs to their live hubs. It is the only process-wide
// mutable structure; its lock covers hub lookup only, never hub state.
type Registry struct {
	mu   sync.RWMutex
	hubs map[string]*sessionHub
}

func NewRegistry() *Registry {
	return &Registry{hubs: make(map[string]*sessionHub)}
}

// ensure returns the session's hub, creating it if needed.
func (r *Registry) ensure(sessionID string) *sessionHub {
	r.mu.RLock()
	hub, ok := r.hubs[sessionID]
	r.mu.RUnlock()
	if ok {
		return hub
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if hub, ok := r.hubs[sessionID]; ok {
		return hub
	}
	hub = newSessionHub()
	r.hubs[sessionID] = hub
	return hub
}

func (r *Registry) hub(sessionID string) (*sessionHub, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hub, ok := r.hubs[sessionID]
	return hub, ok
}

// register adds a new client to the session's hub and enqueues the session
// snapshot as its first event, before any later broadcast can interleave.
func (r *Registry) register(sessionID, participantID string, moderator bool, snapshot domain.Event) *Client {
	hub := r.ensure(sessionID)

	client := &Client{
		sessionID:     sessionID,
		participantID: participantID,
		moderator:     moderator,
		events:        make(chan domain.Event, clientQueue),
	}

	hub.mu.Lock()
	hub.clients[client] = struct{}{}
	client.events <- snapshot
	hub.mu.Unlock()
	return client
}

// Unregister removes the client from its hub, closes its event stream, and
// reclaims the hub once no connections remain. Idempotent.
func (r *Registry) Unregister(c *Client) {
	if c == nil {
		return
	}
	hub, ok := r.hub(c.sessionID)
	if !ok {
		return
	}

	hub.mu.Lock()
	if !c.closed {
		delete(hub.clients, c)
		close(c.events)
		c.closed = true
	}
	empty := len(hub.clients) == 0
	hub.mu.Unlock()

	if !empty {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.hubs[c.sessionID]; ok && current == hub {
		hub.mu.Lock()
		if len(hub.clients) == 0 {
			delete(r.hubs, c.sessionID)
		}
		hub.mu.Unlock()
	}
}

// Broadcast fans an event out to every connection in the session.
// Fire-and-forget: a dead or slow consumer never blocks the others.
func (r *Registry) Broadcast(sessionID string, ev domain.Event) {
	hub, ok := r.hub(sessionID)
	if !ok {
		return
	}
	hub.mu.Lock()
	hub.broadcastLocked(ev)
	hub.mu.Unlock()
}

// Connections reports how many connections a session currently has.
func (r *Registry) Connections(sessionID string) int {
	hub, ok := r.hub(sessionID)
	if !ok {
		return 0
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}
