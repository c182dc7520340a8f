package redpanda

import (
	"math"
	"sync"
	"time"
)

// AdaptivePoller picks the pause between polls: short while records keep
// arriving, growing geometrically after consecutive failures up to max.
type AdaptivePoller struct {
	mu                 sync.Mutex
	baseInterval       time.Duration
	minInterval        time.Duration
	maxInterval        time.Duration
	backoffFactor      float64
	consecutiveSuccess int
	consecutiveFailure int
}

func NewAdaptivePoller(baseInterval time.Duration) *AdaptivePoller {
	return &AdaptivePoller{
		baseInterval:  baseInterval,
		minInterval:   baseInterval / 4,
		maxInterval:   10 * time.Second,
		backoffFactor: 2,
	}
}

// NextInterval returns the pause before the next poll.
func (ap *AdaptivePoller) NextInterval() time.Duration {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if ap.consecutiveFailure > 0 {
		iv := float64(ap.baseInterval) * math.Pow(ap.backoffFactor, float64(ap.consecutiveFailure))
		if iv > float64(ap.maxInterval) {
			return ap.maxInterval
		}
		return time.Duration(iv)
	}
	iv := time.Duration(float64(ap.baseInterval) / float64(ap.consecutiveSuccess+1))
	if iv < ap.minInterval {
		return ap.minInterval
	}
	return iv
}

func (ap *AdaptivePoller) RecordSuccess() {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.consecutiveSuccess++
	ap.consecutiveFailure = 0
}

func (ap *AdaptivePoller) RecordFailure() {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.consecutiveFailure++
	ap.consecutiveSuccess = 0
}

// Healthy is false after five consecutive failed polls.
func (ap *AdaptivePoller) Healthy() bool {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.consecutiveFailure < 5
}
