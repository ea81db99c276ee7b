package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCache(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		assert.Nil(t, newResponseCache(0))
	})

	t.Run("basic operations", func(t *testing.T) {
		cache := newResponseCache(5 * time.Minute)
		defer cache.Close()

		_, found := cache.get("missing")
		assert.False(t, found)

		want := Response{Text: "two outliers", Model: "llama3.2:1b"}
		cache.set("key1", want)

		got, found := cache.get("key1")
		assert.True(t, found)
		assert.Equal(t, want, got)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newResponseCache(50 * time.Millisecond)
		defer cache.Close()

		cache.set("key2", Response{Text: "stale"})
		_, found := cache.get("key2")
		assert.True(t, found)

		time.Sleep(100 * time.Millisecond)

		_, found = cache.get("key2")
		assert.False(t, found)
	})
}

func TestCacheKey(t *testing.T) {
	base := cacheKey("m", Request{Prompt: "p", Temperature: 0.1})
	assert.Equal(t, "m|0.1|p", base)
	assert.NotEqual(t, base, cacheKey("m", Request{Prompt: "p", Temperature: 0.3}))
	assert.NotEqual(t, base, cacheKey("other", Request{Prompt: "p", Temperature: 0.1}))
	assert.NotEqual(t, base, cacheKey("m", Request{Prompt: "q", Temperature: 0.1}))
}
