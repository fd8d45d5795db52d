package redis

import (
	"context"
	"fmt"
	"log/slog"

	"cartify/internal/domain"
	"cartify/internal/realtime"

	goredis "github.com/redis/go-redis/v9"
)

const RelayChannel = "cartify:inventory-update"

// Relay carries inventory events between server instances. Writers publish to one
// redis channel; every instance forwards that channel into its local hub.
type Relay struct {
	rdb     *goredis.Client
	channel string
	log     *slog.Logger
}

var _ realtime.PublisherInterface = (*Relay)(nil)

func NewRelay(rdb *goredis.Client, log *slog.Logger) *Relay {
	return &Relay{rdb: rdb, channel: RelayChannel, log: log}
}

func (r *Relay) Publish(ctx context.Context, ev domain.InventoryEvent) error {
	data, err := realtime.Encode(ev)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}

// Forward subscribes and hands every message to local until ctx is done.
func (r *Relay) Forward(ctx context.Context, local realtime.RawPublisherInterface) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}
	r.log.Info("relay forwarding", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := local.PublishRaw(ctx, []byte(msg.Payload)); err != nil {
				r.log.Warn("relay forward failed", "error", err)
			}
		}
	}
}
