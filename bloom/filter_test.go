package bloom_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/carlot/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_Seen(t *testing.T) {
	t.Parallel()

	t.Run("reports first sighting as new", func(t *testing.T) {
		t.Parallel()

		f := bloom.NewFilter(1000, 0.01)

		assert.False(t, f.Seen("mobile.bg/11736"))
		assert.True(t, f.Seen("mobile.bg/11736"))
		assert.False(t, f.Seen("cars.bg/11736"))
		assert.Equal(t, 2, f.Len())
	})

	t.Run("records the key", func(t *testing.T) {
		t.Parallel()

		f := bloom.NewFilter(1000, 0.01)
		assert.False(t, f.Test("mobile.bg/1"))

		f.Seen("mobile.bg/1")

		assert.True(t, f.Test("mobile.bg/1"))
	})

	t.Run("never drops a new listing on a Bloom collision", func(t *testing.T) {
		t.Parallel()

		// Two bits for five hundred keys: nearly every lookup collides.
		f := bloom.NewFilter(1, 0.5)
		for i := range 500 {
			assert.False(t, f.Seen(fmt.Sprintf("mobile.bg/%d", i)), "listing %d reported as duplicate", i)
		}
		for i := range 500 {
			assert.True(t, f.Seen(fmt.Sprintf("mobile.bg/%d", i)))
		}

		assert.Equal(t, 500, f.Len())
		assert.Positive(t, f.FalsePositives())
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		f := bloom.NewFilter(10000, 0.001)
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 100 {
					if !f.Seen(fmt.Sprintf("mobile.bg/%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, fresh)
		assert.Equal(t, 100, f.Len())
	})
}

func TestFilter_LowFalsePositiveRate(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	for i := range 1000 {
		f.Seen(fmt.Sprintf("mobile.bg/%d", i))
	}

	falsePositives := 0
	for i := range 1000 {
		if f.Test(fmt.Sprintf("cars.bg/%d", i)) {
			falsePositives++
		}
	}

	assert.Less(t, falsePositives, 50, "false positive rate too high: %d/1000", falsePositives)
}
