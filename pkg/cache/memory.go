package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memEntry[V any] struct {
	expires time.Time
	value   V
	key     string
}

func (e *memEntry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is an in-process cache. Entries expire lazily on read and in a
// background sweep; with WithMaxEntries the least recently used entry is
// dropped when the cache is full.
type Memory[V any] struct {
	opts  *options
	index map[string]*list.Element
	order *list.List // front = most recently used
	stop  chan struct{}
	mu    sync.Mutex
	done  bool
}

// NewMemory returns an in-memory cache. Call Close to stop the sweeper.
func NewMemory[V any](opts ...Option) *Memory[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		opts:  o,
		index: make(map[string]*list.Element),
		order: list.New(),
		stop:  make(chan struct{}),
	}
	if o.sweepInterval > 0 {
		go m.sweep()
	}
	return m
}

// Get returns the value for key and marks it recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.index[key]
	if !ok {
		return zero, ErrNotFound
	}
	e := el.Value.(*memEntry[V])
	if e.expired(time.Now()) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.order.MoveToFront(el)
	return e.value, nil
}

// Set stores value under key.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return ErrClosed
	}

	var expires time.Time
	switch {
	case ttl == 0 && m.opts.ttl > 0:
		expires = time.Now().Add(m.opts.ttl)
	case ttl > 0:
		expires = time.Now().Add(ttl)
	}

	if el, ok := m.index[key]; ok {
		e := el.Value.(*memEntry[V])
		e.value, e.expires = value, expires
		m.order.MoveToFront(el)
		return nil
	}

	if m.opts.maxEntries > 0 && m.order.Len() >= m.opts.maxEntries {
		if last := m.order.Back(); last != nil {
			m.remove(last)
		}
	}
	m.index[key] = m.order.PushFront(&memEntry[V]{key: key, value: value, expires: expires})
	return nil
}

// Delete removes key.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return ErrClosed
	}
	if el, ok := m.index[key]; ok {
		m.remove(el)
	}
	return nil
}

// Clear removes every entry.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return ErrClosed
	}
	clear(m.index)
	m.order.Init()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.done {
		m.done = true
		close(m.stop)
	}
	return nil
}

func (m *Memory[V]) sweep() {
	t := time.NewTicker(m.opts.sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-t.C:
			m.mu.Lock()
			for el := m.order.Back(); el != nil; {
				prev := el.Prev()
				if el.Value.(*memEntry[V]).expired(now) {
					m.remove(el)
				}
				el = prev
			}
			m.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (m *Memory[V]) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.index, el.Value.(*memEntry[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
