// Package flight deduplicates concurrent fetches that share a cache key.
// When several callers ask for the same key at the same time, only one
// producer runs; every caller receives that producer's result. This is
// what keeps a herd of simultaneous requests for one symbol from
// multiplying upstream API calls.
package flight

import "sync"

// call tracks one outstanding producer and the result it settled with.
type call struct {
	wg  sync.WaitGroup
	val interface{}
	err error
}

// Group coordinates in-flight producers by key.
type Group struct {
	mu    sync.Mutex
	calls map[string]*call
}

// NewGroup creates an empty coordinator.
func NewGroup() *Group {
	return &Group{calls: make(map[string]*call)}
}

// Do invokes producer for key unless one is already outstanding, in which
// case it waits for the outstanding producer and returns its result.
//
// The in-flight marker is removed before the result is delivered to any
// waiter, so a call made after settlement always starts a fresh fetch.
// Results (including errors) are never retained across settlements.
func (g *Group) Do(key string, producer func() (interface{}, error)) (interface{}, error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}

	c := &call{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = producer()

	// Drop the marker before releasing waiters. Success and failure are
	// treated identically: settlement always clears the key.
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	c.wg.Done()

	return c.val, c.err
}

// Pending reports whether a producer for key is currently outstanding.
func (g *Group) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
