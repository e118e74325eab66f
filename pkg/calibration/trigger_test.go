package calibration

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_CollapsesWithinLockout(t *testing.T) {
	tr := NewTrigger(400 * time.Millisecond)

	assert.True(t, tr.Request(1000*time.Millisecond))
	assert.False(t, tr.Request(1100*time.Millisecond))
	assert.False(t, tr.Request(1399*time.Millisecond))

	assert.True(t, tr.Take())
	assert.False(t, tr.Take(), "one calibration per collapsed burst")
}

func TestTrigger_AcceptsAfterLockout(t *testing.T) {
	tr := NewTrigger(400 * time.Millisecond)

	assert.True(t, tr.Request(0))
	assert.True(t, tr.Take())
	assert.True(t, tr.Request(400*time.Millisecond))
	assert.True(t, tr.Pending())
	assert.True(t, tr.Take())
	assert.False(t, tr.Pending())
}

func TestTrigger_PendingIsAFlagNotAQueue(t *testing.T) {
	tr := NewTrigger(10 * time.Millisecond)

	assert.True(t, tr.Request(0))
	assert.True(t, tr.Request(time.Second))
	assert.True(t, tr.Request(2*time.Second))

	assert.True(t, tr.Take())
	assert.False(t, tr.Take())
}

func TestTrigger_ConcurrentRequests(t *testing.T) {
	tr := NewTrigger(time.Hour)

	var wg sync.WaitGroup
	accepted := make(chan bool, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted <- tr.Request(5 * time.Second)
		}()
	}
	wg.Wait()
	close(accepted)

	n := 0
	for ok := range accepted {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.True(t, tr.Take())
	assert.False(t, tr.Take())
}

func TestTrigger_FirstRequestAtZero(t *testing.T) {
	tr := NewTrigger(400 * time.Millisecond)

	assert.True(t, tr.Request(0))
	assert.False(t, tr.Request(0))
	assert.False(t, tr.Request(100*time.Millisecond))
	assert.True(t, tr.Take())
}
