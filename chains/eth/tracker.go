package eth

import "sync"

const minPollIntervalMs = 500

// pollTracker adapts the event poll interval to the observed block cadence.
// Repeated hits shrink the interval toward the real block time, misses grow
// it to avoid hammering slow endpoints.
type pollTracker struct {
	lock           *sync.RWMutex
	currentValue   int
	consecutiveHit int
}

func newPollTracker(blockTimeMs int) *pollTracker {
	return &pollTracker{
		lock:         &sync.RWMutex{},
		currentValue: blockTimeMs,
	}
}

// hit is called when a poll returned at least one new block.
func (t *pollTracker) hit() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.consecutiveHit++
	if t.consecutiveHit >= 3 {
		t.currentValue = t.currentValue * 6 / 10
	} else {
		t.currentValue = t.currentValue * 950 / 1000
	}

	if t.currentValue < minPollIntervalMs {
		t.currentValue = minPollIntervalMs
	}
}

// miss is called when a poll found no new block.
func (t *pollTracker) miss() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.currentValue = t.currentValue * 11 / 10
	t.consecutiveHit = 0
}

func (t *pollTracker) sleepTimeMs() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.currentValue
}
