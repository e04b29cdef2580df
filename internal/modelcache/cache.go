// Package modelcache remembers which 3D asset was produced for a source
// image so repeat requests skip resubmission.
package modelcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSize = 256

// Cache is a bounded, concurrency-safe source image URL to asset URL map.
type Cache struct {
	lru *lru.Cache[string, string]
}

// New returns a cache holding at most size entries. Non-positive sizes use
// DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Get(imageURL string) (string, bool) {
	if imageURL == "" {
		return "", false
	}
	return c.lru.Get(imageURL)
}

func (c *Cache) Add(imageURL, assetURL string) {
	if imageURL == "" || assetURL == "" {
		return
	}
	c.lru.Add(imageURL, assetURL)
}

func (c *Cache) Len() int { return c.lru.Len() }
