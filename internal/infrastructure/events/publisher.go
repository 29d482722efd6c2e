// Package events publishes committed negotiation events on a Redis channel
// for notification and messaging consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"realty-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Message is the wire shape published for every negotiation event.
type Message struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	NegotiationID string          `json:"negotiation_id"`
	Sequence      int             `json:"sequence"`
	OfferID       *string         `json:"offer_id,omitempty"`
	ActorID       string          `json:"actor_id"`
	Data          json.RawMessage `json:"data"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// RedisPublisher PUBLISHes each event as JSON on Channel.
type RedisPublisher struct {
	Rdb     *redis.Client
	Channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{Rdb: rdb, Channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.NegotiationEvent) error {
	if p == nil || p.Rdb == nil {
		return nil
	}
	payload, err := json.Marshal(NewMessage(ev))
	if err != nil {
		return err
	}
	if err := p.Rdb.Publish(ctx, p.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	return nil
}

func NewMessage(ev domain.NegotiationEvent) Message {
	m := Message{
		EventID:       ev.EventID.String(),
		EventType:     ev.EventType,
		NegotiationID: ev.NegotiationID.String(),
		Sequence:      ev.Sequence,
		ActorID:       ev.ActorID.String(),
		Data:          json.RawMessage(ev.EventData),
		OccurredAt:    ev.CreatedAt,
	}
	if len(m.Data) == 0 {
		m.Data = json.RawMessage("{}")
	}
	if ev.OfferID != nil {
		id := ev.OfferID.String()
		m.OfferID = &id
	}
	return m
}
