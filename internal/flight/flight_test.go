package flight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSingleCaller(t *testing.T) {
	g := NewGroup()

	v, err := g.Do("quote:AAPL", func() (interface{}, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, g.Pending("quote:AAPL"))
}

func TestDoDeduplicatesConcurrentCallers(t *testing.T) {
	g := NewGroup()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	producer := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return "result", nil
	}

	const n = 20
	results := make([]interface{}, n)
	var wg sync.WaitGroup

	// First caller starts the producer and blocks inside it.
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = g.Do("quote:AAPL", producer)
	}()
	<-started

	// Remaining callers must join the outstanding call, not start new ones.
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = g.Do("quote:AAPL", func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return "unexpected", nil
			})
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one producer must run")
	for i := 0; i < n; i++ {
		assert.Equal(t, "result", results[i])
	}
}

func TestDoErrorSharedAndNotRetained(t *testing.T) {
	g := NewGroup()

	wantErr := errors.New("upstream down")
	_, err := g.Do("quote:FAIL", func() (interface{}, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// A call after settlement starts fresh; the old error is gone.
	v, err := g.Do("quote:FAIL", func() (interface{}, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestDoMarkerRemovedBeforeDelivery(t *testing.T) {
	g := NewGroup()

	_, err := g.Do("k", func() (interface{}, error) { return 1, nil })
	require.NoError(t, err)

	// After Do returns, the key must be free for a new producer.
	assert.False(t, g.Pending("k"))

	var calls int32
	_, _ = g.Do("k", func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return 2, nil
	})
	assert.Equal(t, int32(1), calls)
}

func TestDoDistinctKeysRunIndependently(t *testing.T) {
	g := NewGroup()

	var calls int32
	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, _ = g.Do(key, func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return key, nil
			})
		}(key)
	}
	wg.Wait()

	assert.Equal(t, int32(3), calls)
}
