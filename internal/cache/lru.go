// Package cache holds the process-wide LRU caches shared by the query
// expander and the embedding provider. No repo in the retrieval pack
// imports an LRU library, so hashicorp/golang-lru/v2 is an ecosystem
// pick rather than a pack-grounded one (see DESIGN.md).
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Strings is a bounded LRU cache from a string key to a string value,
// backing the query-expansion cache.
type Strings struct {
	inner *lru.Cache[string, string]
}

func NewStrings(size int) (*Strings, error) {
	if size <= 0 {
		size = 50_000
	}
	inner, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Strings{inner: inner}, nil
}

func (c *Strings) Get(key string) (string, bool) {
	if c == nil || c.inner == nil {
		return "", false
	}
	return c.inner.Get(key)
}

func (c *Strings) Add(key, value string) {
	if c == nil || c.inner == nil {
		return
	}
	c.inner.Add(key, value)
}

// Vectors is a bounded LRU cache from a string key to an embedding
// vector, backing the embedding cache.
type Vectors struct {
	inner *lru.Cache[string, []float32]
}

func NewVectors(size int) (*Vectors, error) {
	if size <= 0 {
		size = 50_000
	}
	inner, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Vectors{inner: inner}, nil
}

func (c *Vectors) Get(key string) ([]float32, bool) {
	if c == nil || c.inner == nil {
		return nil, false
	}
	return c.inner.Get(key)
}

func (c *Vectors) Add(key string, value []float32) {
	if c == nil || c.inner == nil {
		return
	}
	c.inner.Add(key, value)
}
