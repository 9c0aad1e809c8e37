package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/plumekit/plume/utils"
)

// Event types published on the broadcast channel.
const (
	EventPostCreated    = "post_created"
	EventCommentCreated = "comment_created"
)

// Broadcaster publishes content events to a Redis pub/sub channel for live
// subscribers. Delivery is fire-and-forget: a publish failure is logged and
// dropped, never propagated to the write path.
type Broadcaster struct {
	rdb     *redis.Client
	channel string
}

// NewBroadcaster wires the publisher to rdb. A nil client yields a no-op
// broadcaster, which keeps tests and redis-less deployments simple.
func NewBroadcaster(rdb *redis.Client, channel string) *Broadcaster {
	return &Broadcaster{rdb: rdb, channel: channel}
}

type event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// Publish sends one event, best-effort.
func (b *Broadcaster) Publish(eventType string, data interface{}) {
	if b == nil || b.rdb == nil {
		return
	}
	payload, err := json.Marshal(event{
		ID:   uuid.NewString(),
		Type: eventType,
		Data: data,
		At:   time.Now(),
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("broadcast publish failed type=%s err=%v", eventType, err)
	}
}
