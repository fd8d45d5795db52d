package client

import (
	"context"
	"sync"

	"cartify/internal/domain"
	"cartify/internal/reconcile"
)

// Live binds one reconciler view to a Source and a fetch. Events that arrive
// while a fetch is in flight are applied to the current view and replayed
// onto the fetched state, so a stale response cannot erase a newer event.
type Live[V reconcile.View[V]] struct {
	fetch func(ctx context.Context) (V, error)

	mu       sync.Mutex
	view     V
	gen      uint64
	inflight bool
	pending  []domain.InventoryEvent
	detached bool
	onChange func(V)
	unsub    []func()
}

func NewLive[V reconcile.View[V]](initial V, fetch func(ctx context.Context) (V, error)) *Live[V] {
	return &Live[V]{view: initial, fetch: fetch}
}

// OnChange registers the single render callback. It runs outside the lock.
func (l *Live[V]) OnChange(fn func(V)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *Live[V]) View() V {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Attach subscribes to src and refetches every time it reaches CONNECTED.
func (l *Live[V]) Attach(ctx context.Context, src Source) {
	unEvents := src.Subscribe(l.Handle)
	unState := src.OnStateChange(func(s State) {
		if s == StateConnected {
			go func() { _ = l.Refresh(ctx) }()
		}
	})

	l.mu.Lock()
	l.unsub = append(l.unsub, unEvents, unState)
	l.mu.Unlock()
}

// Handle merges one event.
func (l *Live[V]) Handle(ev domain.InventoryEvent) {
	l.mu.Lock()
	if l.detached {
		l.mu.Unlock()
		return
	}
	l.view = l.view.Apply(ev)
	if l.inflight {
		l.pending = append(l.pending, ev)
	}
	v, fn := l.view, l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}

// Refresh replaces the view with freshly fetched state. A refresh superseded
// by a newer one, or finishing after Detach, leaves the view untouched.
func (l *Live[V]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.detached {
		l.mu.Unlock()
		return nil
	}
	l.gen++
	gen := l.gen
	l.inflight = true
	l.pending = nil
	l.mu.Unlock()

	fetched, err := l.fetch(ctx)

	l.mu.Lock()
	if l.detached || gen != l.gen {
		l.mu.Unlock()
		return nil
	}
	l.inflight = false
	pending := l.pending
	l.pending = nil
	if err != nil {
		l.mu.Unlock()
		return err
	}
	for _, ev := range pending {
		fetched = fetched.Apply(ev)
	}
	l.view = fetched
	v, fn := l.view, l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return nil
}

// Detach stops listening and abandons any in-flight fetch.
func (l *Live[V]) Detach() {
	l.mu.Lock()
	l.detached = true
	unsub := l.unsub
	l.unsub = nil
	l.pending = nil
	l.mu.Unlock()

	for _, fn := range unsub {
		fn()
	}
}
