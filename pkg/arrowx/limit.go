package arrowx

import (
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/moontrade/smartptr/pkg/counter"
)

// Limited caps the number of outstanding bytes handed out by an allocator.
// Allocate returns nil once the budget would be exceeded.
type Limited struct {
	mem   memory.Allocator
	limit int64
	used  counter.Counter
	fails counter.Counter
	peak  counter.Counter
}

var _ memory.Allocator = (*Limited)(nil)

func NewLimited(mem memory.Allocator, limit int) *Limited {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Limited{mem: mem, limit: int64(limit)}
}

func (l *Limited) reserve(size int64) bool {
	for {
		used := l.used.Load()
		if used+size > l.limit {
			l.fails.Incr()
			return false
		}
		if l.used.Cas(used, used+size) {
			l.peak.Max(used + size)
			return true
		}
	}
}

func (l *Limited) Allocate(size int) []byte {
	if size < 1 || !l.reserve(int64(size)) {
		return nil
	}
	return l.mem.Allocate(size)
}

func (l *Limited) Reallocate(size int, b []byte) []byte {
	delta := int64(size - len(b))
	if delta > 0 && !l.reserve(delta) {
		return nil
	}
	if delta < 0 {
		l.used.Sub(-delta)
	}
	return l.mem.Reallocate(size, b)
}

func (l *Limited) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	l.used.Sub(int64(len(b)))
	l.mem.Free(b)
}

// Used returns the outstanding byte count.
func (l *Limited) Used() int64 { return l.used.Load() }

// Failures returns the number of refused allocations.
func (l *Limited) Failures() int64 { return l.fails.Load() }

// Peak returns the highest outstanding byte count observed.
func (l *Limited) Peak() int64 { return l.peak.Load() }
