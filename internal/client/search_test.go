package client

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"cartify/internal/domain"
	"cartify/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLister struct {
	mu      sync.Mutex
	queries []string
	catalog []domain.Product
}

func (l *recordingLister) Products(_ context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, q.Search)
	var out []domain.Product
	for _, p := range l.catalog {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *recordingLister) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.queries...)
}

func TestCatalogSearch_TypingFetchesOnce(t *testing.T) {
	lister := &recordingLister{catalog: []domain.Product{
		{ID: "p1", Name: "Headphones"},
		{ID: "p2", Name: "Headband"},
		{ID: "p3", Name: "Phone case"},
	}}
	s := NewCatalogSearch(context.Background(), lister, 50*time.Millisecond, logging.Discard())
	defer s.Close()

	s.SetSearch("head")
	time.Sleep(10 * time.Millisecond)
	s.SetSearch("headphone")

	require.Eventually(t, func() bool { return len(s.Live().View().Products) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"headphone"}, lister.seen())
	assert.Equal(t, "p1", s.Live().View().Products[0].ID)
	assert.Equal(t, "headphone", s.Query().Search)
}

func TestCatalogSearch_AppliesPushedEvents(t *testing.T) {
	lister := &recordingLister{catalog: []domain.Product{{ID: "p1", Name: "Mouse", Stock: 4}}}
	s := NewCatalogSearch(context.Background(), lister, 10*time.Millisecond, logging.Discard())
	defer s.Close()

	src := &fakeSource{}
	s.Live().Attach(context.Background(), src)

	s.SetQuery(domain.ProductQuery{Sort: domain.SortName})
	require.Eventually(t, func() bool { return len(s.Live().View().Products) == 1 }, time.Second, 5*time.Millisecond)

	src.emit(domain.NewInventoryEvent(domain.Product{ID: "p1", Name: "Mouse", Stock: 1}, domain.ActionStockChanged))
	assert.Equal(t, 1, s.Live().View().Products[0].Stock)
}

func TestCatalogSearch_CloseDropsPendingFetch(t *testing.T) {
	lister := &recordingLister{}
	s := NewCatalogSearch(context.Background(), lister, 20*time.Millisecond, logging.Discard())

	s.SetSearch("anything")
	s.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, lister.seen())
}
