package vrchat

import (
	"context"
	"sync"
)

// memo is a read-through cache keyed by K. The first lookup of a key starts
// the fetch; every later lookup, including ones made while the fetch is in
// flight, observes that same result. Failed results stay cached.
type memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*memoEntry[V]
}

type memoEntry[V any] struct {
	done chan struct{}
	val  V
	err  error
}

func (m *memo[K, V]) get(ctx context.Context, key K, fetch func(context.Context) (V, error)) (V, error) {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[K]*memoEntry[V])
	}
	e, ok := m.entries[key]
	if !ok {
		e = &memoEntry[V]{done: make(chan struct{})}
		m.entries[key] = e
		// The shared fetch must not inherit one caller's cancellation.
		detached := context.WithoutCancel(ctx)
		go func() {
			defer close(e.done)
			e.val, e.err = fetch(detached)
		}()
	}
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case <-e.done:
		return e.val, e.err
	}
}
