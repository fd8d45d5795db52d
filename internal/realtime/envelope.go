package realtime

import (
	"encoding/json"
	"fmt"

	"cartify/internal/domain"
)

// Topic is the only push topic sessions receive.
const Topic = "inventory-update"

type Envelope struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func Encode(ev domain.InventoryEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal inventory event: %w", err)
	}
	return json.Marshal(Envelope{Topic: Topic, Data: data})
}

// Decode returns ok=false for envelopes on other topics.
func Decode(b []byte) (domain.InventoryEvent, bool, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return domain.InventoryEvent{}, false, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Topic != Topic {
		return domain.InventoryEvent{}, false, nil
	}
	var ev domain.InventoryEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return domain.InventoryEvent{}, false, fmt.Errorf("unmarshal inventory event: %w", err)
	}
	return ev, true, nil
}
