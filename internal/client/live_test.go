package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cartify/internal/domain"
	"cartify/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	handlers  []func(domain.InventoryEvent)
	listeners []func(State)
	unsubs    int
}

func (f *fakeSource) Subscribe(fn func(domain.InventoryEvent)) func() {
	f.mu.Lock()
	f.handlers = append(f.handlers, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.handlers = nil
		f.unsubs++
		f.mu.Unlock()
	}
}

func (f *fakeSource) OnStateChange(fn func(State)) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.listeners = nil
		f.unsubs++
		f.mu.Unlock()
	}
}

func (f *fakeSource) emit(ev domain.InventoryEvent) {
	f.mu.Lock()
	hs := make([]func(domain.InventoryEvent), len(f.handlers))
	copy(hs, f.handlers)
	f.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (f *fakeSource) setState(s State) {
	f.mu.Lock()
	ls := make([]func(State), len(f.listeners))
	copy(ls, f.listeners)
	f.mu.Unlock()
	for _, l := range ls {
		l(s)
	}
}

// gatedFetch returns a fetch that blocks until a result is sent on the returned channel.
func gatedFetch() (func(context.Context) (reconcile.CatalogList, error), chan<- reconcile.CatalogList, <-chan struct{}) {
	results := make(chan reconcile.CatalogList)
	started := make(chan struct{}, 8)
	fetch := func(ctx context.Context) (reconcile.CatalogList, error) {
		started <- struct{}{}
		select {
		case r := <-results:
			return r, nil
		case <-ctx.Done():
			return reconcile.CatalogList{}, ctx.Err()
		}
	}
	return fetch, results, started
}

func ids(v reconcile.CatalogList) []string {
	out := make([]string, 0, len(v.Products))
	for _, p := range v.Products {
		out = append(out, p.ID)
	}
	return out
}

func list(idList ...string) reconcile.CatalogList {
	ps := make([]domain.Product, 0, len(idList))
	for _, id := range idList {
		ps = append(ps, domain.Product{ID: id})
	}
	return reconcile.CatalogList{Products: ps}
}

func TestLive_EventsDuringFetchSurviveStaleResult(t *testing.T) {
	fetch, results, started := gatedFetch()
	live := NewLive(list("a"), fetch)

	done := make(chan error, 1)
	go func() { done <- live.Refresh(context.Background()) }()
	<-started

	live.Handle(domain.NewInventoryEvent(domain.Product{ID: "new"}, domain.ActionCreated))
	assert.Equal(t, []string{"new", "a"}, ids(live.View()))

	// The response was read before "new" existed.
	results <- list("a", "b")
	require.NoError(t, <-done)

	assert.Equal(t, []string{"new", "a", "b"}, ids(live.View()))
}

func TestLive_DeleteDuringFetchIsNotResurrected(t *testing.T) {
	fetch, results, started := gatedFetch()
	live := NewLive(list("a", "b"), fetch)

	done := make(chan error, 1)
	go func() { done <- live.Refresh(context.Background()) }()
	<-started

	live.Handle(domain.NewInventoryEvent(domain.Product{ID: "b"}, domain.ActionDeleted))
	results <- list("a", "b")
	require.NoError(t, <-done)

	assert.Equal(t, []string{"a"}, ids(live.View()))
}

func TestLive_SupersededRefreshIsIgnored(t *testing.T) {
	fetch, results, started := gatedFetch()
	live := NewLive(list(), fetch)

	first := make(chan error, 1)
	go func() { first <- live.Refresh(context.Background()) }()
	<-started

	second := make(chan error, 1)
	go func() { second <- live.Refresh(context.Background()) }()
	<-started

	// Whichever fetch receives first, only the newest refresh may land.
	results <- list("x")
	results <- list("y")
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	got := ids(live.View())
	require.Len(t, got, 1)
	assert.Contains(t, []string{"x", "y"}, got[0])
}

func TestLive_FetchErrorKeepsView(t *testing.T) {
	boom := errors.New("boom")
	live := NewLive(list("a"), func(context.Context) (reconcile.CatalogList, error) {
		return reconcile.CatalogList{}, boom
	})

	err := live.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, ids(live.View()))
}

func TestLive_AttachRefetchesOnConnect(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	live := NewLive(list(), func(context.Context) (reconcile.CatalogList, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return list("fresh"), nil
	})

	changes := make(chan reconcile.CatalogList, 8)
	live.OnChange(func(v reconcile.CatalogList) { changes <- v })

	src := &fakeSource{}
	live.Attach(context.Background(), src)

	src.setState(StateDisconnected)
	src.setState(StateConnected)

	select {
	case v := <-changes:
		assert.Equal(t, []string{"fresh"}, ids(v))
	case <-time.After(2 * time.Second):
		t.Fatal("no refetch on connect")
	}

	src.emit(domain.NewInventoryEvent(domain.Product{ID: "pushed"}, domain.ActionCreated))
	select {
	case v := <-changes:
		assert.Equal(t, []string{"pushed", "fresh"}, ids(v))
	case <-time.After(2 * time.Second):
		t.Fatal("event not applied")
	}

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestLive_DetachAbandonsFetch(t *testing.T) {
	fetch, results, started := gatedFetch()
	live := NewLive(list("a"), fetch)
	src := &fakeSource{}
	live.Attach(context.Background(), src)

	done := make(chan error, 1)
	go func() { done <- live.Refresh(context.Background()) }()
	<-started

	live.Detach()
	results <- list("late")
	require.NoError(t, <-done)

	live.Handle(domain.NewInventoryEvent(domain.Product{ID: "ignored"}, domain.ActionCreated))
	assert.Equal(t, []string{"a"}, ids(live.View()))
	assert.Equal(t, 2, src.unsubs)
	assert.NoError(t, live.Refresh(context.Background()))
}

func TestLive_InventoryTableView(t *testing.T) {
	initial := reconcile.InventoryTable{Products: []domain.Product{{ID: "p1", Name: "Mouse", Stock: 9}}}
	live := NewLive(initial, func(context.Context) (reconcile.InventoryTable, error) {
		return initial, nil
	})

	live.Handle(domain.NewInventoryEvent(domain.Product{ID: "p1", Name: "Mouse", Stock: 2}, domain.ActionStockChanged))

	v := live.View()
	require.Len(t, v.Products, 1)
	assert.Equal(t, 2, v.Products[0].Stock)
	require.NotNil(t, v.LastUpdate)
	assert.Equal(t, "Mouse", v.LastUpdate.ProductName)
}
