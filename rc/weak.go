package rc

import "fmt"

// Weak observes a value without keeping it alive. It only keeps the control
// block's storage alive. The element it carries may refer to a disposed value
// and must be reached through Lock.
type Weak[T any] struct {
	_    noCopy
	elem T
	ctrl *control
}

// NewWeak returns a weak handle observing the value s owns. A nil or empty s
// yields an empty weak handle.
func NewWeak[T any](s *Shared[T]) *Weak[T] {
	if s == nil || s.ctrl == nil {
		return new(Weak[T])
	}
	s.ctrl.addWeak()
	return &Weak[T]{elem: s.elem, ctrl: s.ctrl}
}

// WeakAlias returns a weak handle on o's control block exposing elem.
func WeakAlias[U any](o Observer, elem U) *Weak[U] {
	c := o.block()
	if c == nil {
		return new(Weak[U])
	}
	c.addWeak()
	return &Weak[U]{elem: elem, ctrl: c}
}

func (w *Weak[T]) block() *control {
	if w == nil {
		return nil
	}
	return w.ctrl
}

// Clone returns another weak handle on the same block.
func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.ctrl == nil {
		return new(Weak[T])
	}
	w.ctrl.addWeak()
	return &Weak[T]{elem: w.elem, ctrl: w.ctrl}
}

// Lock returns a strong handle if the value is still alive, or an empty
// handle if it has been disposed. This is the only race-free liveness check.
func (w *Weak[T]) Lock() *Shared[T] {
	s, err := Promote(w)
	if err != nil {
		return Empty[T]()
	}
	return s
}

// Expired reports whether the value has been disposed. Advisory: the answer
// may be stale by the time it is returned; use Lock to act on it.
func (w *Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

// UseCount is an advisory snapshot of the number of strong handles.
func (w *Weak[T]) UseCount() int {
	if w == nil || w.ctrl == nil {
		return 0
	}
	return w.ctrl.useCount()
}

// IsEmpty reports whether the handle refers to no control block at all.
func (w *Weak[T]) IsEmpty() bool {
	return w == nil || w.ctrl == nil
}

// SameOwner reports whether w and o share a control block.
func (w *Weak[T]) SameOwner(o Observer) bool {
	if o == nil {
		return w.block() == nil
	}
	return w.block() == o.block()
}

// Release drops this handle's weak reference and empties it. Releasing an
// empty handle is a no-op.
func (w *Weak[T]) Release() {
	if w == nil || w.ctrl == nil {
		return
	}
	c := w.ctrl
	var zero T
	w.elem, w.ctrl = zero, nil
	c.releaseWeak()
}

// Reset is Release.
func (w *Weak[T]) Reset() {
	w.Release()
}

// Swap exchanges the contents of two weak handles.
func (w *Weak[T]) Swap(o *Weak[T]) {
	w.elem, o.elem = o.elem, w.elem
	w.ctrl, o.ctrl = o.ctrl, w.ctrl
}

func (w *Weak[T]) String() string {
	if w == nil || w.ctrl == nil {
		return "rc.Weak(empty)"
	}
	return fmt.Sprintf("rc.Weak(block=%d, use=%d)", w.ctrl.id, w.ctrl.useCount())
}
