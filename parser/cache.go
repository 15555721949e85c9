package parser

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// MoneyCache memoizes ParseMoney results. Spreadsheet columns repeat the
// same cell text thousands of times (list prices, round quantities), so a
// small bounded cache removes most of the per-row parsing work.
type MoneyCache struct {
	cache    *lru.Cache[string, float64]
	fallback float64
}

// NewMoneyCache builds a cache holding up to size distinct cell values;
// misses parse with the given fallback.
func NewMoneyCache(size int, fallback float64) (*MoneyCache, error) {
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &MoneyCache{cache: cache, fallback: fallback}, nil
}

// Parse behaves exactly like ParseMoney(raw, fallback) with memoization.
func (c *MoneyCache) Parse(raw string) float64 {
	if c == nil || c.cache == nil {
		return ParseMoney(raw, c.fallbackValue())
	}
	if value, ok := c.cache.Get(raw); ok {
		return value
	}
	value := ParseMoney(raw, c.fallback)
	c.cache.Add(raw, value)
	return value
}

func (c *MoneyCache) fallbackValue() float64 {
	if c == nil {
		return 0
	}
	return c.fallback
}
