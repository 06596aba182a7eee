package enhance

import (
	"context"
	"strings"
	"sync"
)

// Cache memoizes a Provider. Entries are keyed by the structured fields so the
// same word combination is only sent once per process.
type Cache struct {
	next Provider
	max  int

	mu      sync.Mutex
	entries map[string]*Result
	order   []string
}

// NewCache wraps next. max bounds the number of entries; 0 means 256.
func NewCache(next Provider, max int) *Cache {
	if max <= 0 {
		max = 256
	}
	return &Cache{
		next:    next,
		max:     max,
		entries: make(map[string]*Result),
	}
}

// CacheKey returns the cache key for req.
func CacheKey(req *Request) string {
	parts := []string{req.Subject, req.CoreWord, req.Predicate, req.Category}
	if req.Question {
		parts = append(parts, "question")
	}
	if req.Politeness != "" && req.Politeness != Casual {
		parts = append(parts, string(req.Politeness))
	}
	return strings.Join(parts, "-")
}

// Enhance implements Provider. Errors are not cached.
func (c *Cache) Enhance(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, ErrEmptySentence
	}
	key := CacheKey(req)

	c.mu.Lock()
	if r, ok := c.entries[key]; ok {
		c.mu.Unlock()
		out := *r
		out.Cached = true
		return &out, nil
	}
	c.mu.Unlock()

	res, err := c.next.Enhance(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
		if len(c.order) > c.max {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
	}
	stored := *res
	c.entries[key] = &stored
	return res, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
