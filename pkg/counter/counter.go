package counter

import (
	"sync/atomic"
)

// Counter is an int64 updated atomically. The zero value is ready to use.
type Counter int64

func (c *Counter) Load() int64 {
	return atomic.LoadInt64((*int64)(c))
}

func (c *Counter) Incr() int64 {
	return atomic.AddInt64((*int64)(c), 1)
}

func (c *Counter) Decr() int64 {
	return atomic.AddInt64((*int64)(c), -1)
}

// Add adds count and returns the new value.
func (c *Counter) Add(count int64) int64 {
	return atomic.AddInt64((*int64)(c), count)
}

// Sub subtracts the magnitude of count.
func (c *Counter) Sub(count int64) int64 {
	if count > 0 {
		count = -count
	}
	return atomic.AddInt64((*int64)(c), count)
}

func (c *Counter) Cas(old, new int64) bool {
	return atomic.CompareAndSwapInt64((*int64)(c), old, new)
}

func (c *Counter) Store(value int64) {
	atomic.StoreInt64((*int64)(c), value)
}

// Max raises the counter to value if value is larger, making it a high-water
// mark. It reports whether the counter changed.
func (c *Counter) Max(value int64) bool {
	for {
		cur := c.Load()
		if value <= cur {
			return false
		}
		if c.Cas(cur, value) {
			return true
		}
	}
}
