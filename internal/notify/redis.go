package notify

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const fanoutChannel = "zeroup:notify"

// RedisFanout publishes touches on a Redis channel so that watchers on every
// API instance wake up, then delivers them through a local Hub.
type RedisFanout struct {
	rdb   *redis.Client
	local *Hub
}

func NewRedisFanout(rdb *redis.Client) *RedisFanout {
	return &RedisFanout{rdb: rdb, local: NewHub()}
}

// Run relays published keys into the local hub until ctx ends.
func (f *RedisFanout) Run(ctx context.Context) error {
	sub := f.rdb.Subscribe(ctx, fanoutChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			_ = f.local.Touch(ctx, msg.Payload)
		}
	}
}

func (f *RedisFanout) Watch(key string, fn func()) func() {
	return f.local.Watch(key, fn)
}

// Touch publishes key. When publishing fails the local hub is still woken so
// watchers on this instance see the change.
func (f *RedisFanout) Touch(ctx context.Context, key string) error {
	if err := f.rdb.Publish(ctx, fanoutChannel, key).Err(); err != nil {
		log.Printf("[notify] publish failed key=%s err=%v", key, err)
		_ = f.local.Touch(ctx, key)
		return err
	}
	return nil
}
