// Package atomic_clock keeps a nanosecond timestamp readable from any goroutine.
// Zero means never set.
package atomic_clock

import (
	"sync/atomic"
	"time"
)

type Clock struct{ v int64 }

// Source is wall clock in nanoseconds, the default for SetNow and Since.
func Source() int64 { return time.Now().UnixNano() }

func (c *Clock) UnixNano() int64 { return atomic.LoadInt64(&c.v) }
func (c *Clock) IsZero() bool    { return c.UnixNano() == 0 }
func (c *Clock) Time() time.Time { return time.Unix(0, c.UnixNano()) }

func (c *Clock) Set(ns int64)        { atomic.StoreInt64(&c.v, ns) }
func (c *Clock) SetNow()             { c.Set(Source()) }
func (c *Clock) SetTime(t time.Time) { c.Set(t.UnixNano()) }
func (c *Clock) Reset()              { c.Set(0) }

// Idle reports whether more than d passed between c and now.
// Never idle when c was not set.
func (c *Clock) Idle(now int64, d time.Duration) bool {
	last := c.UnixNano()
	return last != 0 && time.Duration(now-last) > d
}

// Since returns 0 for unset clock.
func Since(c *Clock) time.Duration {
	last := c.UnixNano()
	if last == 0 {
		return 0
	}
	return time.Duration(Source() - last)
}
