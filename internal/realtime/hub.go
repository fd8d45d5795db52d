package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"cartify/internal/domain"
)

var ErrHubClosed = errors.New("hub closed")

// Hub is the process-wide broadcaster. All registrations and broadcasts pass
// through the Run loop, so every session sees events in publish order.
type Hub struct {
	sessions   map[string]*Session
	register   chan *Session
	unregister chan *Session
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.log.Info("hub shutting down", "sessions", h.SessionCount())
			h.closeAll()
			close(h.done)
			return
		case s := <-h.register:
			h.handleRegister(s)
		case s := <-h.unregister:
			h.handleUnregister(s)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds s to the fan-out set. Events published before this call are never delivered to s.
func (h *Hub) Register(ctx context.Context, s *Session) error {
	select {
	case h.register <- s:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Publish is fire-and-forget: it enqueues one broadcast and returns.
func (h *Hub) Publish(ctx context.Context, ev domain.InventoryEvent) error {
	data, err := Encode(ev)
	if err != nil {
		h.log.Error("hub: encode event", "error", err, "action", ev.Action)
		return err
	}
	return h.PublishRaw(ctx, data)
}

func (h *Hub) PublishRaw(ctx context.Context, data []byte) error {
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) handleRegister(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.log.Info("session registered", "session", s.ID, "transport", s.Transport, "sessions", n)
}

func (h *Hub) handleUnregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	n := len(h.sessions)
	h.mu.Unlock()
	s.close()
	if ok {
		h.log.Info("session unregistered", "session", s.ID, "sessions", n)
	}
}

// handleBroadcast never blocks on a session: one whose queue is full is evicted
// and is expected to reconnect and refetch.
func (h *Hub) handleBroadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.sessions {
		select {
		case s.send <- msg:
		default:
			delete(h.sessions, id)
			s.close()
			h.log.Warn("slow session evicted", "session", id, "transport", s.Transport)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.sessions {
		s.close()
	}
	h.sessions = make(map[string]*Session)
}
