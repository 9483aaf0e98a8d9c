// Package live implements an optional passive tournament spectator feed
// (§GLOSSARY "Live viewer"): a gorilla/websocket broadcaster that
// subscribes to an EventDispatcher and fans GameStarted/MovePlayed/
// GameFinished events out to every connected WebSocket client as JSON.
// This is not a GUI and has no control over match play; it only mirrors
// events that already happened. Grounded in the broadcaster shape seen
// in the retrieved pack's websocket servers (connection registry guarded
// by a mutex, per-connection write goroutine, best-effort delivery) with
// the hardware-eboard feed those servers were built for replaced by the
// tournament's own lifecycle events.
package live

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/herohde/arbiter/pkg/events"
	"github.com/seekerror/logw"
)

// Message is the JSON envelope sent to every connected client, one per
// broadcast event. Kind names the event using its String form so a
// spectator need not know the underlying integer encoding.
type Message struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Broadcaster accepts WebSocket upgrades on its ServeHTTP handler and
// relays a fixed subset of dispatcher events to every connected client.
// Grounded in spec.md's broadcast subset: GameStarted, MovePlayed,
// GameFinished only -- EngineCreated/EngineDestroyed/MatchFinished/
// ThreadFinished are internal housekeeping a spectator has no use for.
type Broadcaster struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Message
}

// NewBroadcaster constructs a Broadcaster with no connected clients yet.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan Message),
	}
}

// Register subscribes b to GameStarted, MovePlayed and GameFinished
// events on d, broadcasting each to every currently connected client.
// Call once per match, the way pkg/stats.Aggregator.Register is called
// once per match on the same dispatcher.
func (b *Broadcaster) Register(d *events.Dispatcher) {
	d.Register(events.GameStarted, func(e events.Event) { b.broadcast("GameStarted", e.Payload) })
	d.Register(events.MovePlayed, func(e events.Event) { b.broadcast("MovePlayed", e.Payload) })
	d.Register(events.GameFinished, func(e events.Event) { b.broadcast("GameFinished", e.Payload) })
}

// ServeHTTP upgrades the request to a WebSocket connection and streams
// broadcast messages to it until the client disconnects or the write
// fails. It ignores anything the client sends; this is a one-way feed.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logw.Infof(r.Context(), "live: upgrade failed: %v", err)
		return
	}

	ch := make(chan Message, 64)
	b.mu.Lock()
	b.clients[conn] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		close(ch)
		conn.Close()
	}()

	for msg := range ch {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// broadcast fans msg out to every connected client's delivery channel,
// dropping it for any client whose channel is full rather than blocking
// the dispatcher's consumer thread on a slow spectator.
func (b *Broadcaster) broadcast(kind string, payload any) {
	msg := Message{Kind: kind, Payload: payload}

	b.mu.Lock()
	defer b.mu.Unlock()

	for conn, ch := range b.clients {
		select {
		case ch <- msg:
		default:
			logw.Infof(context.Background(), "live: dropping %v for slow client %v", kind, conn.RemoteAddr())
		}
	}
}
