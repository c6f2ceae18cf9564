// Package notify fans "something changed for this key" signals out to live
// watchers. Watchers reload their own state on each signal; signals carry no
// payload and bursts collapse into a single wakeup.
package notify

import (
	"context"
	"sync"
)

// Broker is implemented by Hub and RedisFanout.
type Broker interface {
	Watch(key string, fn func()) (cancel func())
	Touch(ctx context.Context, key string) error
}

type watcher struct {
	fn     func()
	signal chan struct{}
	done   chan struct{}
}

// Hub is an in-process Broker.
type Hub struct {
	mu       sync.Mutex
	next     uint64
	watchers map[string]map[uint64]*watcher
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[uint64]*watcher)}
}

// Watch runs fn on its own goroutine once straight away and again after every
// Touch of key, until cancel is called. cancel is safe to call more than once;
// after it returns no further call of fn will start.
func (h *Hub) Watch(key string, fn func()) func() {
	w := &watcher{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	w.signal <- struct{}{}
	h.mu.Lock()
	h.next++
	id := h.next
	set, ok := h.watchers[key]
	if !ok {
		set = make(map[uint64]*watcher)
		h.watchers[key] = set
	}
	set[id] = w
	h.mu.Unlock()

	go w.loop()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.watchers[key]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(h.watchers, key)
				}
			}
			h.mu.Unlock()
			close(w.done)
		})
	}
}

// Touch wakes every watcher of key. It never blocks on a slow watcher.
func (h *Hub) Touch(_ context.Context, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.watchers[key] {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
	return nil
}

// Watchers reports how many watchers are registered for key.
func (h *Hub) Watchers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[key])
}

func (w *watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case <-w.signal:
			select {
			case <-w.done:
				return
			default:
			}
			w.fn()
		}
	}
}

// NotificationsKey and LedgerKey name the per-user streams.
func NotificationsKey(uid string) string { return "notifications:" + uid }

func LedgerKey(uid string) string { return "ledger:" + uid }
