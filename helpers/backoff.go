package helpers

import (
	"sync/atomic"
	"time"

	"github.com/temoto/dlms-meter/helpers/atomic_clock"
)

// Backoff is limited exponential delay between retries.
// Zero value is not usable, set Min and Max. K defaults to 2.
type Backoff struct {
	next     int64 // atomic align
	failures int32
	last     atomic_clock.Clock

	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms
}

// DelayAfter records result of the attempt just made and returns how long to wait.
// Success returns 0.
//
//	for {
//	  ok := publish()
//	  time.Sleep(backoff.DelayAfter(ok))
//	}
func (b *Backoff) DelayAfter(success bool) time.Duration {
	b.Update(success)
	if success {
		return 0
	}
	return b.DelayBefore()
}

// DelayBefore is remaining time of current delay since last failure.
func (b *Backoff) DelayBefore() time.Duration {
	if atomic.LoadInt32(&b.failures) == 0 {
		return 0
	}
	delay := b.limit(time.Duration(atomic.LoadInt64(&b.next)))
	since := atomic_clock.Since(&b.last)
	if since >= delay {
		return 0
	}
	return b.round(delay - since)
}

// Failure multiplies next delay by K, first failure waits Min.
func (b *Backoff) Failure() {
	next := time.Duration(atomic.LoadInt64(&b.next))
	if atomic.AddInt32(&b.failures, 1) == 1 || next == 0 {
		next = b.Min
	} else {
		k := b.K
		if k == 0 {
			k = 2
		}
		next = time.Duration(float32(next) * k)
	}
	b.last.SetNow()
	atomic.StoreInt64(&b.next, int64(b.limit(next)))
}

// Failures since last Reset.
func (b *Backoff) Failures() int { return int(atomic.LoadInt32(&b.failures)) }

func (b *Backoff) Reset() {
	atomic.StoreInt32(&b.failures, 0)
	atomic.StoreInt64(&b.next, 0)
	b.last.Reset()
}

func (b *Backoff) Update(success bool) {
	if success {
		b.Reset()
	} else {
		b.Failure()
	}
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = 1 * time.Millisecond
	}
	return d / res * res
}
