package storage

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	throttleDefaultPause = 2 * time.Second
	throttleMaxBuckets   = 4096
	throttleMaxTTL       = time.Minute
)

// Throttle records per-bucket pause hints derived from backend capacity signals
// (SlowDown / 503) and answers "should this bucket back off right now". Hints
// expire on their own; there is no background sweeper.
type Throttle struct {
	hints *expirable.LRU[string, time.Time]
}

func NewThrottle() *Throttle {
	return &Throttle{
		hints: expirable.NewLRU[string, time.Time](throttleMaxBuckets, nil, throttleMaxTTL),
	}
}

// Pause records a backoff hint for a bucket. A zero duration applies the default.
func (t *Throttle) Pause(bucket string, d time.Duration) {
	if d <= 0 {
		d = throttleDefaultPause
	}
	if d > throttleMaxTTL {
		d = throttleMaxTTL
	}
	t.hints.Add(bucket, time.Now().Add(d))
}

// PauseFor returns the remaining advisory pause for a bucket, zero when none.
func (t *Throttle) PauseFor(bucket string) time.Duration {
	until, ok := t.hints.Get(bucket)
	if !ok {
		return 0
	}
	remaining := time.Until(until)
	if remaining <= 0 {
		t.hints.Remove(bucket)
		return 0
	}
	return remaining
}
