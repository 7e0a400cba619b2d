// Copyright 2019 Andy Pan & Dietoad. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spinlock

import (
	"runtime"
	"sync/atomic"
)

// Mutex is a spin lock for critical sections of a few instructions, such as
// reference count updates. It is a single pointer-free word, so it may live in
// memory the collector does not scan. The zero value is unlocked.
type Mutex uint32

const (
	activeSpins = 4
	maxBackoff  = 16
)

// Lock acquires the lock, spinning and then yielding until it is free.
func (m *Mutex) Lock() {
	if atomic.CompareAndSwapUint32((*uint32)(m), 0, 1) {
		return
	}
	m.lockSlow()
}

func (m *Mutex) lockSlow() {
	for i := 0; i < activeSpins; i++ {
		if m.TryLock() {
			return
		}
	}
	// Leverage the exponential backoff algorithm, see https://en.wikipedia.org/wiki/Exponential_backoff.
	backoff := 1
	for {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if m.TryLock() {
			return
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

// TryLock acquires the lock if it is free.
func (m *Mutex) TryLock() bool {
	return atomic.LoadUint32((*uint32)(m)) == 0 &&
		atomic.CompareAndSwapUint32((*uint32)(m), 0, 1)
}

// Unlock releases the lock. Unlocking a free lock panics.
func (m *Mutex) Unlock() {
	if atomic.SwapUint32((*uint32)(m), 0) == 0 {
		panic("spinlock: unlock of unlocked mutex")
	}
}

// IsLocked reports whether the lock is currently held. Advisory only.
func (m *Mutex) IsLocked() bool {
	return atomic.LoadUint32((*uint32)(m)) != 0
}
