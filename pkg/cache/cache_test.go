package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, time.Minute, 10)

	c.Set("key", "value")
	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, time.Minute, 10)

	c.SetWithExpiration("short", "value", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestDeleteAndFlush(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, time.Minute, 10)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Count())

	c.Flush()
	assert.Equal(t, 0, c.Count())
}

func TestEviction(t *testing.T) {
	c := NewCacheWithOptions(time.Minute, time.Minute, 2)

	c.SetWithExpiration("oldest", 1, time.Second)
	c.SetWithExpiration("newer", 2, time.Minute)
	c.SetWithExpiration("newest", 3, time.Minute)

	assert.Equal(t, 2, c.Count())
	_, ok := c.Get("oldest")
	assert.False(t, ok)
	_, ok = c.Get("newest")
	assert.True(t, ok)
}
