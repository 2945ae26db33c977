package worker

import "time"

// RetryPolicy controls how sync task retries back off.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the backoff delay for a 1-based attempt number,
// clamped to MaxDelay when one is set.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	initial := p.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	delay := float64(initial)
	for i := 1; i < attempt; i++ {
		delay *= factor
		if p.MaxDelay > 0 && delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}

	d := time.Duration(delay)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}
