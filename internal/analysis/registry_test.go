package analysis_test

import (
	"sync"
	"testing"
	"time"

	"github.com/futurelens/futurelens/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EnsureIsIdempotent(t *testing.T) {
	r := analysis.NewRegistry()

	ch1 := r.Ensure(1)
	ch2 := r.Ensure(1)
	assert.Equal(t, ch1, ch2)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LookupMissing(t *testing.T) {
	r := analysis.NewRegistry()

	_, ok := r.Lookup(99)
	assert.False(t, ok)
}

func TestRegistry_PublishDeliversInOrder(t *testing.T) {
	r := analysis.NewRegistry()
	ch := r.Ensure(1)

	require.True(t, r.Publish(1, analysis.Event{Type: "a"}))
	require.True(t, r.Publish(1, analysis.Event{Type: "b"}))

	assert.Equal(t, "a", (<-ch).Type)
	assert.Equal(t, "b", (<-ch).Type)
}

func TestRegistry_PublishToMissingChannel(t *testing.T) {
	r := analysis.NewRegistry()
	assert.False(t, r.Publish(42, analysis.Event{Type: "a"}))
}

func TestRegistry_PublishDropsWhenFull(t *testing.T) {
	r := analysis.NewRegistry()
	r.Ensure(1)

	for i := 0; i < 128; i++ {
		require.True(t, r.Publish(1, analysis.Event{Type: "fill"}))
	}
	// Buffer full: the publish must not block, just drop.
	done := make(chan bool, 1)
	go func() { done <- r.Publish(1, analysis.Event{Type: "overflow"}) }()

	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full channel")
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := analysis.NewRegistry()
	r.Ensure(1)
	r.Remove(1)

	_, ok := r.Lookup(1)
	assert.False(t, ok)
	assert.False(t, r.Publish(1, analysis.Event{Type: "a"}))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := analysis.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			r.Ensure(id % 5)
			r.Publish(id%5, analysis.Event{Type: "e"})
			r.Lookup(id % 5)
		}(int64(i))
	}
	wg.Wait()
	assert.Equal(t, 5, r.Len())
}
