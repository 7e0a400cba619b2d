package rc

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/moontrade/smartptr/pkg/arrowx"
	"github.com/moontrade/smartptr/pkg/shape"
)

// noCopy may be embedded into structs which must not be copied
// after the first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Observer is any handle, strong or weak, of any element type.
type Observer interface {
	block() *control
}

// Owner is a strong handle of any element type.
type Owner interface {
	Observer
	strongBlock() *control
}

// Shared is a strong handle. The element it exposes is usually the managed
// value itself, but an aliased handle may expose any other value while
// keeping the managed one alive.
type Shared[T any] struct {
	_    noCopy
	elem T
	ctrl *control
}

// Empty returns a handle that owns nothing.
func Empty[T any]() *Shared[T] {
	return new(Shared[T])
}

// New takes ownership of v. When the last handle is released v is disposed
// with its Dispose or Close method, if it has one. A nil v yields an empty
// handle.
func New[T any](v T) *Shared[T] {
	if isNil(v) {
		return Empty[T]()
	}
	s := &ownedDelete[T]{v: v}
	c := new(control)
	c.initGuarded(s, any(v))
	return &Shared[T]{elem: v, ctrl: c}
}

// NewWithDeleter takes ownership of v and hands it to del when the last
// handle is released. A nil v yields an empty handle and del is not called.
func NewWithDeleter[T any](v T, del func(T)) *Shared[T] {
	if isNil(v) {
		return Empty[T]()
	}
	if del == nil {
		return New(v)
	}
	s := &deleterOnly[T]{v: v, del: del}
	c := new(control)
	c.initGuarded(s, any(v))
	return &Shared[T]{elem: v, ctrl: c}
}

// NewWithAllocator is NewWithDeleter with the control block's state placed in
// memory obtained from mem and returned to it when the last handle of either
// kind is released. If the allocation fails v is handed to del before the
// error is returned.
func NewWithAllocator[T any](v T, del func(T), mem memory.Allocator) (*Shared[T], error) {
	if isNil(v) {
		return Empty[T](), nil
	}
	if del == nil {
		del = func(v T) { destroy(any(v)) }
	}
	storage, err := arrowx.Bytes(mem, stateSize)
	if err != nil {
		del(v)
		return nil, err
	}
	st, err := arrowx.View[blockState](storage, 1)
	if err != nil {
		mem.Free(storage)
		del(v)
		return nil, err
	}
	s := &deleterAlloc[T]{v: v, del: del, mem: mem, storage: storage}
	c := &control{state: &st[0]}
	c.initGuarded(s, any(v))
	return &Shared[T]{elem: v, ctrl: c}, nil
}

// Alias returns a strong handle that shares owner's control block, and
// therefore keeps owner's value alive, while exposing elem. Aliasing an empty
// owner yields an empty handle.
func Alias[U any](owner Owner, elem U) *Shared[U] {
	c := owner.strongBlock()
	if c == nil {
		return Empty[U]()
	}
	c.addStrong()
	return &Shared[U]{elem: elem, ctrl: c}
}

// Promote returns a strong handle to the value w observes, or ErrExpired if
// w is empty or the value has already been disposed.
func Promote[T any](w *Weak[T]) (*Shared[T], error) {
	if w == nil || w.ctrl == nil || !w.ctrl.tryAddStrong() {
		return nil, ErrExpired
	}
	return &Shared[T]{elem: w.elem, ctrl: w.ctrl}, nil
}

func (s *Shared[T]) block() *control {
	if s == nil {
		return nil
	}
	return s.ctrl
}

func (s *Shared[T]) strongBlock() *control {
	return s.block()
}

// Clone returns another strong handle to the same value.
func (s *Shared[T]) Clone() *Shared[T] {
	if s == nil || s.ctrl == nil {
		return Empty[T]()
	}
	s.ctrl.addStrong()
	return &Shared[T]{elem: s.elem, ctrl: s.ctrl}
}

// Weak returns a weak handle observing the same value.
func (s *Shared[T]) Weak() *Weak[T] {
	return NewWeak(s)
}

// Release drops this handle's reference and empties it. Releasing an empty
// handle is a no-op.
func (s *Shared[T]) Release() {
	if s == nil || s.ctrl == nil {
		return
	}
	c := s.ctrl
	var zero T
	s.elem, s.ctrl = zero, nil
	c.releaseStrong()
}

// Get returns the element, or the zero value for an empty handle.
func (s *Shared[T]) Get() T {
	if s == nil {
		var zero T
		return zero
	}
	return s.elem
}

// Must returns the element and panics with ErrEmpty if there is none.
func (s *Shared[T]) Must() T {
	if s == nil || s.ctrl == nil || isNil(s.elem) {
		panic(ErrEmpty)
	}
	return s.elem
}

// IsEmpty reports whether the handle owns nothing.
func (s *Shared[T]) IsEmpty() bool {
	return s == nil || s.ctrl == nil
}

// UseCount is an advisory snapshot of the number of strong handles.
func (s *Shared[T]) UseCount() int {
	if s == nil || s.ctrl == nil {
		return 0
	}
	return s.ctrl.useCount()
}

// Unique reports whether this is the only strong handle. Advisory.
func (s *Shared[T]) Unique() bool {
	return s.UseCount() == 1
}

// Shape is the layout of the managed value recorded when the block was built.
func (s *Shared[T]) Shape() shape.Shape {
	if s == nil || s.ctrl == nil {
		return shape.Shape{}
	}
	return s.ctrl.shape
}

// Extent is the element count recorded when the block was built: 1 for a
// single value, the array or slice length for buffers.
func (s *Shared[T]) Extent() int {
	return s.Shape().Extent
}

// SameOwner reports whether s and o share a control block.
func (s *Shared[T]) SameOwner(o Observer) bool {
	if o == nil {
		return s.block() == nil
	}
	return s.block() == o.block()
}

// Swap exchanges the contents of two handles.
func (s *Shared[T]) Swap(o *Shared[T]) {
	s.elem, o.elem = o.elem, s.elem
	s.ctrl, o.ctrl = o.ctrl, s.ctrl
}

// Reset releases the current value.
func (s *Shared[T]) Reset() {
	s.Release()
}

// ResetTo releases the current value and takes ownership of v. Resetting to
// the address already owned panics with ErrSelfReset.
func (s *Shared[T]) ResetTo(v T) {
	s.checkReset(v)
	n := New(v)
	s.Swap(n)
	n.Release()
}

// ResetWithDeleter is ResetTo with a caller-supplied deleter.
func (s *Shared[T]) ResetWithDeleter(v T, del func(T)) {
	s.checkReset(v)
	n := NewWithDeleter(v, del)
	s.Swap(n)
	n.Release()
}

// ResetAlias releases the current value and aliases owner, exposing elem.
func (s *Shared[T]) ResetAlias(owner Owner, elem T) {
	n := Alias(owner, elem)
	s.Swap(n)
	n.Release()
}

func (s *Shared[T]) checkReset(v T) {
	if s.ctrl == nil {
		return
	}
	if addr := shape.Address(any(v)); addr != 0 && addr == shape.Address(any(s.elem)) {
		panic(ErrSelfReset)
	}
}

func (s *Shared[T]) String() string {
	if s == nil || s.ctrl == nil {
		return "rc.Shared(empty)"
	}
	return fmt.Sprintf("rc.Shared(block=%d, use=%d, %v)", s.ctrl.id, s.ctrl.useCount(), s.elem)
}

// Index returns the address of the i-th element of a buffer handle. It
// panics with ErrEmpty on an empty handle and on an out of range index.
func Index[E any](s *Shared[[]E], i int) *E {
	elems := s.Must()
	if i < 0 || i >= len(elems) {
		panic(fmt.Sprintf("rc: index %d out of range [0:%d]", i, len(elems)))
	}
	return &elems[i]
}

// Equal reports whether a and b expose the same element address. Elements
// without an address compare by value when their type is comparable. Two
// empty handles are equal.
func Equal[T, U any](a *Shared[T], b *Shared[U]) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() && b.IsEmpty()
	}
	ea, eb := any(a.Get()), any(b.Get())
	pa, pb := shape.Address(ea), shape.Address(eb)
	if pa != 0 || pb != 0 {
		return pa == pb
	}
	if ea == nil || eb == nil {
		return ea == nil && eb == nil
	}
	if reflect.TypeOf(ea) != reflect.TypeOf(eb) || !reflect.TypeOf(ea).Comparable() {
		return false
	}
	return ea == eb
}
