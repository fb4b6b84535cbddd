package eventsink

import (
	"encoding/json"

	redis "github.com/go-redis/redis/v7"

	"github.com/upstarter/automata-sub005"
)

// RedisSink publishes each Event as JSON to a Redis pub/sub channel,
// grounded in littlealbert's go.mod dependency on go-redis/redis/v7 (the
// teacher carries the client but SPEC_FULL.md's domain stack is the first
// place it is actually exercised as an EventSink transport).
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink wires client to publish events on channel. The caller owns
// the client's lifecycle (construction and Close).
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Emit(e btr.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.client.Publish(s.channel, payload)
}
