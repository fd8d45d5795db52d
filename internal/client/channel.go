package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"cartify/internal/domain"
	"cartify/internal/realtime"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

type State string

const (
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateDisconnected State = "DISCONNECTED"
	StateClosed       State = "CLOSED"
)

// Source is anything that delivers inventory events and reports its connectivity.
type Source interface {
	Subscribe(fn func(domain.InventoryEvent)) (unsubscribe func())
	OnStateChange(fn func(State)) (unsubscribe func())
}

var _ Source = (*Channel)(nil)

// WebsocketURL derives the realtime endpoint from the API base URL.
func WebsocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Channel is the client end of the realtime connection. It reconnects until
// closed; events missed while disconnected are gone, so listeners should
// refetch when the state returns to CONNECTED.
type Channel struct {
	url        string
	dialer     *websocket.Dialer
	newBackOff func() backoff.BackOff
	log        *slog.Logger

	mu        sync.Mutex
	state     State
	nextID    int
	handlers  []subscriber[domain.InventoryEvent]
	listeners []subscriber[State]
	started   bool
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

func NewChannel(wsURL string, log *slog.Logger) *Channel {
	return &Channel{
		url:        wsURL,
		dialer:     websocket.DefaultDialer,
		newBackOff: DefaultBackOff,
		log:        log,
		state:      StateDisconnected,
		done:       make(chan struct{}),
	}
}

// SetBackOff replaces the reconnect policy. Call before Start.
func (c *Channel) SetBackOff(fn func() backoff.BackOff) {
	c.newBackOff = fn
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) Subscribe(fn func(domain.InventoryEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.handlers = append(c.handlers, subscriber[domain.InventoryEvent]{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handlers = without(c.handlers, id)
	}
}

func (c *Channel) OnStateChange(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscriber[State]{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listeners = without(c.listeners, id)
	}
}

func without[T any](subs []subscriber[T], id int) []subscriber[T] {
	out := make([]subscriber[T], 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Start runs the connect loop in the background. It is a no-op after the first call.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.run(ctx)
}

// Close tears the channel down and waits for the loop to exit.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		started, cancel := c.started, c.cancel
		c.started = true
		c.mu.Unlock()

		if !started {
			c.setState(StateClosed)
			close(c.done)
			return
		}
		cancel()
	})
	<-c.done
}

func (c *Channel) Done() <-chan struct{} {
	return c.done
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer c.setState(StateClosed)

	b := c.newBackOff()
	for ctx.Err() == nil {
		c.setState(StateConnecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			b.Reset()
			c.setState(StateConnected)
			c.read(ctx, conn)
		} else {
			c.log.Debug("realtime dial failed", "url", c.url, "error", err)
		}
		if ctx.Err() != nil {
			return
		}

		c.setState(StateDisconnected)
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Channel) read(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Info("realtime connection lost", "error", err)
			}
			return
		}
		ev, ok, err := realtime.Decode(msg)
		if err != nil {
			c.log.Warn("malformed realtime message", "error", err)
			continue
		}
		if !ok {
			continue
		}
		c.dispatch(ev)
	}
}

// dispatch delivers one event to every handler, in subscription order, before the next is read.
func (c *Channel) dispatch(ev domain.InventoryEvent) {
	c.mu.Lock()
	handlers := append([]subscriber[domain.InventoryEvent](nil), c.handlers...)
	c.mu.Unlock()

	for _, h := range handlers {
		h.fn(ev)
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	listeners := append([]subscriber[State](nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(s)
	}
}
