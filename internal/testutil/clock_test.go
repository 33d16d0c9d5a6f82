package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestClock_ReadsStart(t *testing.T) {
	c := NewClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "reading does not advance")
}

func TestClock_Advance(t *testing.T) {
	c := NewClock(start)

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())
}

func TestClock_Set(t *testing.T) {
	c := NewClock(start)

	earlier := start.AddDate(0, 0, -3)
	c.Set(earlier)
	assert.Equal(t, earlier, c.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	c := NewClock(start)
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(numGoroutines*time.Second), c.Now())
}
