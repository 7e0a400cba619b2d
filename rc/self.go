package rc

import (
	"fmt"
	"reflect"

	"github.com/moontrade/smartptr/pkg/shape"
	"github.com/moontrade/smartptr/pkg/spinlock"
)

// SelfRef lets a value that is always owned through Shared handles hand out
// new handles to itself. Embed it with T set to the handle element type:
//
//	type Session struct {
//		rc.SelfRef[*Session]
//		...
//	}
//
//	s := rc.New(&Session{})
//	same := s.Must().SharedFromThis() // shares s's control block
//
// The back-reference is bound by the first constructor that takes ownership
// of the value (New, NewWithDeleter, NewWithAllocator, Make, MakeFunc, and
// the Reset forms) and is weak, so it never keeps the value alive.
type SelfRef[T any] struct {
	mu   spinlock.Mutex
	weak Weak[T]
}

type selfBinder interface {
	bindOwner(c *control, elem any) bool
	unbindOwner(c *control) bool
}

func bindSelf(c *control, elem any) {
	if b, ok := elem.(selfBinder); ok && b.bindOwner(c, elem) {
		c.self = b
	}
}

// bindOwner stores a weak reference to c unless a live owner is already
// bound. An expired binding is replaced and its weak reference released.
func (r *SelfRef[T]) bindOwner(c *control, elem any) bool {
	t, ok := elem.(T)
	if !ok {
		panic(fmt.Sprintf("rc: SelfRef[%s] owned as %T", typeName[T](), elem))
	}
	r.mu.Lock()
	old := r.weak.ctrl
	if old != nil && shape.Address(any(r.weak.elem)) != shape.Address(elem) {
		// Bound on another object and copied here. The copy holds no weak
		// reference of its own.
		old = nil
	}
	if old != nil && !old.expired() {
		r.mu.Unlock()
		return false
	}
	c.addWeak()
	r.weak.elem, r.weak.ctrl = t, c
	r.mu.Unlock()
	if old != nil {
		old.releaseWeak()
	}
	return true
}

// unbindOwner clears the binding if it still refers to c. The caller owns the
// weak reference that was stored when it returns true.
func (r *SelfRef[T]) unbindOwner(c *control) bool {
	r.mu.Lock()
	if r.weak.ctrl != c {
		r.mu.Unlock()
		return false
	}
	var zero T
	r.weak.elem, r.weak.ctrl = zero, nil
	r.mu.Unlock()
	return true
}

// SharedFromThis returns a strong handle sharing the control block of the
// handle that owns the value. It panics with ErrNotShared if no Shared handle
// owns it, either yet or any more.
func (r *SelfRef[T]) SharedFromThis() *Shared[T] {
	r.mu.Lock()
	elem, c := r.weak.elem, r.weak.ctrl
	if c == nil || !c.tryAddStrong() {
		r.mu.Unlock()
		panic(ErrNotShared)
	}
	r.mu.Unlock()
	return &Shared[T]{elem: elem, ctrl: c}
}

// WeakFromThis returns a weak handle on the owning control block, or an empty
// weak handle if the value is not owned.
func (r *SelfRef[T]) WeakFromThis() *Weak[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.weak.ctrl == nil {
		return new(Weak[T])
	}
	r.weak.ctrl.addWeak()
	return &Weak[T]{elem: r.weak.elem, ctrl: r.weak.ctrl}
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
