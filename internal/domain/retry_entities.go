package domain

// RetryBudget bounds how many insufficient answers a sub-dialogue accepts
// before the flow is forced forward. It is a value: every method returns the
// updated budget and leaves the receiver untouched.
type RetryBudget struct {
	Count int `json:"count"`
	Max   int `json:"max"`
}

// NewRetryBudget returns an empty budget. Max below 1 is raised to 1.
func NewRetryBudget(max int) RetryBudget {
	if max < 1 {
		max = 1
	}
	return RetryBudget{Max: max}
}

// ShouldRetry reports whether another attempt is allowed.
func (b RetryBudget) ShouldRetry() bool { return b.Count < b.Max }

// Exhausted is the negation of ShouldRetry.
func (b RetryBudget) Exhausted() bool { return !b.ShouldRetry() }

// Record counts one insufficient attempt. The count never exceeds Max.
func (b RetryBudget) Record() RetryBudget {
	if b.Count < b.Max {
		b.Count++
	}
	return b
}

// Reset zeroes the count.
func (b RetryBudget) Reset() RetryBudget {
	b.Count = 0
	return b
}

// Remaining is the number of attempts left.
func (b RetryBudget) Remaining() int {
	if b.Count >= b.Max {
		return 0
	}
	return b.Max - b.Count
}
