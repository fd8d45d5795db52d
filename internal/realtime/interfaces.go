package realtime

import (
	"context"

	"cartify/internal/domain"
)

// PublisherInterface is the port write paths use to announce inventory changes.
type PublisherInterface interface {
	Publish(ctx context.Context, ev domain.InventoryEvent) error
}

// RawPublisherInterface accepts an already encoded envelope.
type RawPublisherInterface interface {
	PublishRaw(ctx context.Context, data []byte) error
}

var (
	_ PublisherInterface    = (*Hub)(nil)
	_ RawPublisherInterface = (*Hub)(nil)
)
