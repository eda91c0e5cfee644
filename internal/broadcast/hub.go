package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/draftarena/backend/internal/session"
)

// tickInterval is the hub's periodic timer-event cadence. The spec treats
// this as an implementation hint: clients must tolerate anything between
// 100ms and 2s, but 250ms is what we actually emit.
const tickInterval = 250 * time.Millisecond

type event struct {
	name string
	data []byte
}

func newEvent(name string, payload interface{}) event {
	data, _ := json.Marshal(payload)
	return event{name: name, data: data}
}

// subscriber is a single open spectator stream. Writes are best-effort: a
// full channel or closed stream just drops the client, per the backpressure
// policy — no buffering of missed events is promised.
type subscriber struct {
	ch chan event
}

func (s *subscriber) trySend(e event) bool {
	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

// room is the per-session broadcast structure: the open client set, the
// last-known shaped snapshot, and a ticker started on first subscribe and
// stopped on last unsubscribe. Grounded on the reference Room's
// clients/ticker lifecycle, translated from a full-duplex websocket room to
// a unidirectional SSE hub. snapshot carries the full shaped row, the same
// payload every other read path returns, so spectators never see a leaner
// view than an authenticated read would get.
type room struct {
	mu       sync.Mutex
	clients  map[*subscriber]struct{}
	order    []*subscriber
	snapshot session.ShapedSession
	ticker   *time.Ticker
	stop     chan struct{}
}

// Hub multiplexes session state updates and timer ticks to spectator
// streams, keyed by session id. Hub resources for a session exist only
// while at least one stream is open.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

// NewHub creates an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

func (h *Hub) getOrCreate(sessionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[sessionID]; ok {
		return r
	}
	r := &room{clients: make(map[*subscriber]struct{})}
	h.rooms[sessionID] = r
	return r
}

func (h *Hub) evict(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, sessionID)
}

// Subscribe opens a new spectator stream for sessionID, seeded with the
// given initial shaped snapshot. It returns the event channel and an
// unsubscribe func the caller must defer. Subscribing starts the room's
// ticker if this is the first client.
func (h *Hub) Subscribe(sessionID string, initial session.ShapedSession) (<-chan event, func()) {
	r := h.getOrCreate(sessionID)

	r.mu.Lock()
	sub := &subscriber{ch: make(chan event, 16)}
	r.clients[sub] = struct{}{}
	r.order = append(r.order, sub)
	r.snapshot = initial
	startTicker := r.ticker == nil
	r.mu.Unlock()

	if startTicker {
		h.startTicker(sessionID, r)
	}

	return sub.ch, func() { h.unsubscribe(sessionID, r, sub) }
}

func (h *Hub) startTicker(sessionID string, r *room) {
	r.mu.Lock()
	r.ticker = time.NewTicker(tickInterval)
	r.stop = make(chan struct{})
	ticker := r.ticker
	stop := r.stop
	r.mu.Unlock()

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.mu.Lock()
				doc := r.snapshot.State
				session.Burn(&doc, time.Now())
				r.snapshot.State = doc
				r.mu.Unlock()
				h.broadcast(sessionID, newEvent("timer", session.Snapshot(&doc)))
			}
		}
	}()
}

func (h *Hub) unsubscribe(sessionID string, r *room, sub *subscriber) {
	r.mu.Lock()
	if _, ok := r.clients[sub]; !ok {
		// Already dropped by broadcast or closed by PushDeleted.
		r.mu.Unlock()
		return
	}
	delete(r.clients, sub)
	for i, c := range r.order {
		if c == sub {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	close(sub.ch)
	last := len(r.clients) == 0
	var stop chan struct{}
	if last && r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
		stop = r.stop
		r.stop = nil
	}
	r.mu.Unlock()

	if stop != nil {
		close(stop)
		h.evict(sessionID)
	}
}

// broadcast fans an event out to every open subscriber in insertion order.
// A subscriber whose channel is full is dropped, per the hub's backpressure
// policy: it is unsubscribed on the spot, which closes its channel so the
// stream handler returns; its Subscribe-returned closer is then a no-op.
func (h *Hub) broadcast(sessionID string, e event) {
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	subs := append([]*subscriber(nil), r.order...)
	r.mu.Unlock()

	for _, s := range subs {
		if !s.trySend(e) {
			h.unsubscribe(sessionID, r, s)
		}
	}
}

// PushUpdate broadcasts a persisted state change to every open stream and
// refreshes the room's snapshot, so the next ticker burns forward from this
// moment. shaped carries the same full shaped row every other read path
// returns (team names, mode, featured rules, joined cost profile), not the
// bare state document. With no stream open for the session there is no
// room, and the update is not kept.
func (h *Hub) PushUpdate(sessionID string, shaped session.ShapedSession) {
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}
	r.mu.Lock()
	r.snapshot = shaped
	r.mu.Unlock()
	h.broadcast(sessionID, newEvent("update", shaped))
}

// PushDeleted broadcasts the terminal deleted event and evicts the room;
// no event follows on the same stream after this one.
func (h *Hub) PushDeleted(sessionID string) {
	h.broadcast(sessionID, newEvent("deleted", map[string]string{"sessionId": sessionID}))
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	delete(h.rooms, sessionID)
	h.mu.Unlock()
	if ok {
		r.mu.Lock()
		for _, s := range r.order {
			delete(r.clients, s)
			close(s.ch)
		}
		r.order = nil
		if r.ticker != nil {
			r.ticker.Stop()
			close(r.stop)
			r.ticker = nil
			r.stop = nil
		}
		r.mu.Unlock()
	}
}

// PushNotFound emits a single not_found event for a stream opened against
// an unknown session id; the caller closes the connection immediately
// after.
func PushNotFound() event {
	return newEvent("not_found", map[string]string{})
}
