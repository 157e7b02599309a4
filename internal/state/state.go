// Package state holds the process-wide selected place and loading flag.
package state

import "sync"

// Cell is an observable value. Subscribers are called synchronously, outside
// the lock, after every Set that changes the value.
type Cell[T comparable] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]func(T)
	next  int
}

func NewCell[T comparable](initial T) *Cell[T] {
	return &Cell[T]{value: initial, subs: make(map[int]func(T))}
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores v. Last writer wins.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	if c.value == v {
		c.mu.Unlock()
		return
	}
	c.value = v
	subs := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Store groups the shared cells. Create one per process and pass it by
// reference to every consumer.
type Store struct {
	Place   *Cell[string]
	Loading *Cell[bool]
}

func New(initialPlace string) *Store {
	return &Store{
		Place:   NewCell(initialPlace),
		Loading: NewCell(false),
	}
}
