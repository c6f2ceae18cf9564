package notify

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisFanoutDeliversAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return rdb
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewRedisFanout(newClient())
	receiver := NewRedisFanout(newClient())
	go receiver.Run(ctx)

	var calls atomic.Int32
	stop := receiver.Watch(NotificationsKey("u1"), func() { calls.Add(1) })
	defer stop()

	waitFor(t, func() bool { return calls.Load() == 1 && len(mr.PubSubChannels("")) > 0 })
	if err := publisher.Touch(ctx, NotificationsKey("u1")); err != nil {
		t.Fatalf("touch: %v", err)
	}
	waitFor(t, func() bool { return calls.Load() == 2 })
}
