package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// LRUCache holds at most capacity entries, dropping the least recently used
// first. An entry older than its TTL reads as a miss and is removed.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	index    map[string]*list.Element
	order    *list.List // front is most recent
	now      func() time.Time

	hits, misses atomic.Int64
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

var _ Cache[int] = (*LRUCache[int])(nil)

// NewLRUCache clamps capacity to at least one entry.
func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		capacity: max(capacity, 1),
		ttl:      ttl,
		index:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// live returns the element for key if present and unexpired. Expired
// elements are unlinked. Callers hold mu.
func (c *LRUCache[T]) live(key string) *list.Element {
	el, ok := c.index[key]
	if !ok {
		return nil
	}
	if c.expired(el, c.now()) {
		c.unlink(el)
		return nil
	}
	return el
}

func (c *LRUCache[T]) expired(el *list.Element, at time.Time) bool {
	return at.After(el.Value.(*entry[T]).expires)
}

func (c *LRUCache[T]) unlink(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el := c.live(key)
	if el == nil {
		c.misses.Add(1)
		var zero T
		return zero, false
	}
	c.order.MoveToFront(el)
	c.hits.Add(1)
	return el.Value.(*entry[T]).value, true
}

// Set stores value and restarts its TTL.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		c.unlink(c.order.Back())
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.unlink(el)
	}
}

func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.index)
	c.order.Init()
}

// CleanExpired drops every expired entry and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := c.now()
	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el, at) {
			c.unlink(el)
			n++
		}
		el = prev
	}
	return n
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUCache[T]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
