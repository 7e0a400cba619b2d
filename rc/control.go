package rc

import (
	"strconv"
	"unsafe"

	logger "github.com/moontrade/log"
	"github.com/moontrade/smartptr/config"
	"github.com/moontrade/smartptr/pkg/counter"
	"github.com/moontrade/smartptr/pkg/shape"
	"github.com/moontrade/smartptr/pkg/spinlock"
	"github.com/moontrade/smartptr/pkg/util"
	"golang.org/x/sys/cpu"
)

// blockState is the mutable part of a control block. It holds no Go
// pointers so that allocator-backed blocks can keep it outside the Go heap.
//
// While strong > 0 the strong group holds one implicit weak reference, so
// weak >= 1 until the value has been disposed.
type blockState struct {
	mu     spinlock.Mutex
	strong int32
	weak   int32
	_      cpu.CacheLinePad
}

const stateSize = int(unsafe.Sizeof(blockState{}))

var blockIDs counter.Counter

// control is shared by every handle that refers to one managed value.
type control struct {
	own      blockState
	state    *blockState
	strategy strategy
	shape    shape.Shape
	id       uint64
	self     selfBinder
}

// init publishes the block with strong = 1, weak = 1. state must already point
// at allocator memory for allocator-backed blocks; otherwise the embedded
// state is used.
func (c *control) init(s strategy, elem any) {
	if c.state == nil {
		c.state = &c.own
	}
	c.state.strong = 1
	c.state.weak = 1
	c.strategy = s
	c.shape = shape.Of(elem)
	c.id = uint64(blockIDs.Incr())
	stats.Blocks.Incr()
	stats.PeakLive.Max(stats.Live.Incr())
	c.trace("create", 1, 1)
}

// initGuarded is init for a value that already exists: if building the block
// panics, the value is disposed and the block's storage released through s
// before the panic continues.
func (c *control) initGuarded(s strategy, elem any) {
	ok, published := false, false
	defer func() {
		if ok {
			return
		}
		if published {
			stats.Live.Decr()
		}
		c.strategy, c.state = nil, nil
		s.dispose()
		s.releaseStorage()
	}()
	c.init(s, elem)
	published = true
	bindSelf(c, elem)
	ok = true
}

func (c *control) addStrong() {
	st := c.state
	st.mu.Lock()
	if st.strong < 1 {
		strong := st.strong
		st.mu.Unlock()
		panic("rc: add strong ref to disposed block: " + strconv.Itoa(int(strong)))
	}
	st.strong++
	strong, weak := st.strong, st.weak
	st.mu.Unlock()
	c.trace("add_strong", strong, weak)
}

// tryAddStrong increments the strong count unless it already reached zero.
// The check and the increment happen under one lock hold.
func (c *control) tryAddStrong() bool {
	st := c.state
	st.mu.Lock()
	if st.strong == 0 {
		weak := st.weak
		st.mu.Unlock()
		stats.FailedPromotions.Incr()
		c.trace("try_add_strong_failed", 0, weak)
		return false
	}
	st.strong++
	strong, weak := st.strong, st.weak
	st.mu.Unlock()
	stats.Promotions.Incr()
	c.trace("try_add_strong", strong, weak)
	return true
}

// releaseStrong drops one strong reference. On the 1 -> 0 transition the lock
// is released before the value is disposed: dispose may run arbitrary code,
// including releasing other handles to this same block.
func (c *control) releaseStrong() {
	st := c.state
	st.mu.Lock()
	st.strong--
	strong, weak := st.strong, st.weak
	st.mu.Unlock()
	c.trace("release_strong", strong, weak)
	if strong > 0 {
		return
	}
	if strong < 0 {
		panic("rc: negative strong count: " + strconv.Itoa(int(strong)))
	}
	if self := c.self; self != nil {
		c.self = nil
		if self.unbindOwner(c) {
			c.releaseWeak()
		}
	}
	c.dispose()
	c.releaseWeak()
}

func (c *control) dispose() {
	stats.Disposes.Incr()
	if config.RecoverDisposePanics {
		defer func() {
			if e := recover(); e != nil {
				stats.DisposePanics.Incr()
				logger.Error(util.PanicToError(e), "rc: dispose panic")
			}
		}()
	}
	c.strategy.dispose()
}

func (c *control) addWeak() {
	st := c.state
	st.mu.Lock()
	if st.weak < 1 {
		weak := st.weak
		st.mu.Unlock()
		panic("rc: add weak ref to released block: " + strconv.Itoa(int(weak)))
	}
	st.weak++
	strong, weak := st.strong, st.weak
	st.mu.Unlock()
	c.trace("add_weak", strong, weak)
}

// releaseWeak drops one weak reference. On the 1 -> 0 transition the lock is
// released before the storage is, and the block must not be touched again.
func (c *control) releaseWeak() {
	st := c.state
	st.mu.Lock()
	st.weak--
	strong, weak := st.strong, st.weak
	st.mu.Unlock()
	c.trace("release_weak", strong, weak)
	if weak > 0 {
		return
	}
	if weak < 0 {
		panic("rc: negative weak count: " + strconv.Itoa(int(weak)))
	}
	stats.StorageReleases.Incr()
	stats.Live.Decr()
	c.trace("release_storage", strong, weak)
	s := c.strategy
	c.strategy = nil
	c.state = nil
	s.releaseStorage()
}

// useCount is an advisory snapshot of the strong count.
func (c *control) useCount() int {
	st := c.state
	st.mu.Lock()
	strong := st.strong
	st.mu.Unlock()
	return int(strong)
}

func (c *control) weakCount() int {
	st := c.state
	st.mu.Lock()
	weak := st.weak
	st.mu.Unlock()
	return int(weak)
}

func (c *control) expired() bool {
	return c.useCount() == 0
}
