package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int64, string](2, time.Minute)

	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Set(1, "a")
	c.Set(1, "b")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, c.Len())

	c.Delete(1)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string, int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("old", 1)
	now = now.Add(30 * time.Second)
	c.Set("new", 2)
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, c.CleanExpired())
	_, ok := c.Get("old")
	assert.False(t, ok)
	v, ok := c.Get("new")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("new")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
