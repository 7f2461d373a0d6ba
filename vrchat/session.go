package vrchat

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// keyManager memoizes the session api key. At most one config fetch is in
// flight per manager; a failed fetch stores nothing, so the next caller
// starts over.
type keyManager struct {
	fetch func(ctx context.Context) (string, error)

	mu    sync.Mutex
	key   string
	group singleflight.Group
}

func (m *keyManager) current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key
}

func (m *keyManager) ensure(ctx context.Context) (string, error) {
	if key := m.current(); key != "" {
		return key, nil
	}
	ch := m.group.DoChan("apiKey", func() (any, error) {
		// A fetch that finished between the check above and joining the
		// group has already stored the key.
		if key := m.current(); key != "" {
			return key, nil
		}
		key, err := m.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		m.key = key
		m.mu.Unlock()
		return key, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
