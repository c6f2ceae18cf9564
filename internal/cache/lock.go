package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a user's lock could not be obtained in time.
var ErrLockTimeout = errors.New("user lock not obtained")

// Locker serialises ledger mutations for one user.
type Locker interface {
	Lock(ctx context.Context, uid string) (unlock func(), err error)
}

const (
	lockTTL      = 30 * time.Second
	lockRetry    = 100 * time.Millisecond
	lockAttempts = 100
)

// RedisLocker takes a redislock lease per user so concurrent API instances
// never interleave awards for the same user.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

func (l *RedisLocker) Lock(ctx context.Context, uid string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "zeroup:lock:user:"+uid, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetry), lockAttempts),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: uid=%s", ErrLockTimeout, uid)
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Printf("[lock] release failed uid=%s err=%v", uid, err)
		}
	}, nil
}

// LocalLocker is the single-instance Locker.
type LocalLocker struct {
	mu    sync.Mutex
	users map[string]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{users: make(map[string]*userLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, uid string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.users[uid]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		l.users[uid] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(uid, ul, false)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.release(uid, ul, true) })
	}, nil
}

func (l *LocalLocker) release(uid string, ul *userLock, held bool) {
	if held {
		<-ul.ch
	}
	l.mu.Lock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.users, uid)
	}
	l.mu.Unlock()
}
