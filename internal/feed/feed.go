// Package feed carries full-collection snapshots from a producer to any number
// of consumers. Consumers never see partial updates: every value is a complete
// replacement for the previous one.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Hub fans out snapshots. A subscriber receives the latest snapshot on
// subscribe and then every later one; when it falls behind, older snapshots
// are dropped in favour of the newest.
type Hub[T any] struct {
	mu     sync.Mutex
	latest T
	has    bool
	subs   map[chan T]struct{}
	closed bool
	done   chan struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[chan T]struct{}), done: make(chan struct{})}
}

func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = v
	h.has = true
	for ch := range h.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that is closed when ctx is done or the hub is
// closed.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	if h.has {
		ch <- h.latest
	}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Close ends every subscription. Later publishes are dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// offer replaces any undelivered value with v. Only Publish sends, under the
// hub lock, so the second send cannot block.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Source opens one subscription. The returned channel delivers full
// snapshots until it is closed.
type Source[T any] func(ctx context.Context) (<-chan T, error)

// Consume applies every snapshot from src until ctx is done. When the
// subscription fails or its channel closes, Consume waits retry and
// subscribes again.
func Consume[T any](ctx context.Context, name string, src Source[T], apply func(T), retry time.Duration, logger *slog.Logger) {
	for {
		ch, err := src(ctx)
		if err != nil {
			logger.Error("feed subscribe failed", "feed", name, "error", err)
		} else {
			logger.Debug("feed subscribed", "feed", name)
			for v := range ch {
				apply(v)
			}
		}

		if ctx.Err() != nil {
			logger.Debug("feed stopped", "feed", name)
			return
		}
		logger.Warn("feed interrupted, resubscribing", "feed", name, "retry", retry)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
