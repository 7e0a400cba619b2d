package rc

import (
	"fmt"
	"unsafe"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/moontrade/smartptr/pkg/arrowx"
	"github.com/moontrade/smartptr/pkg/shape"
)

// inplace places a control block and the value it manages in one allocation.
type inplace[V any] struct {
	control
	value V
}

type inplaceValue[V any] struct {
	b *inplace[V]
}

func (s inplaceValue[V]) dispose() {
	destroy(any(&s.b.value))
	var zero V
	s.b.value = zero
}

func (s inplaceValue[V]) releaseStorage() {}

// Make allocates a control block and a copy of v together and returns a
// handle to the copy.
func Make[V any](v V) *Shared[*V] {
	return MakeFunc(func(p *V) { *p = v })
}

// MakeFunc allocates a control block and a zero V together, lets init
// construct the value in place, then takes ownership of it. If init panics
// nothing has been published and the allocation is simply dropped.
func MakeFunc[V any](init func(*V)) *Shared[*V] {
	b := new(inplace[V])
	if init != nil {
		init(&b.value)
	}
	b.control.initGuarded(inplaceValue[V]{b: b}, any(&b.value))
	return &Shared[*V]{elem: &b.value, ctrl: &b.control}
}

// inplaceSlice is the control block for MakeSlice. The buffer is a separate
// allocation because its length is only known at run time.
type inplaceSlice[E any] struct {
	control
	values []E
}

type inplaceSliceValues[E any] struct {
	b *inplaceSlice[E]
}

func (s inplaceSliceValues[E]) dispose() {
	destroy(any(s.b.values))
	s.b.values = nil
}

func (s inplaceSliceValues[E]) releaseStorage() {}

// MakeSlice returns a handle to a buffer of n elements, each constructed as a
// copy of def. n == 0 yields an empty handle; a negative n panics.
func MakeSlice[E any](n int, def E) *Shared[[]E] {
	if n < 0 {
		panic(fmt.Sprintf("rc: negative buffer length %d", n))
	}
	if n == 0 {
		return Empty[[]E]()
	}
	b := &inplaceSlice[E]{values: make([]E, n)}
	for i := range b.values {
		b.values[i] = def
	}
	b.control.initGuarded(inplaceSliceValues[E]{b: b}, any(b.values))
	return &Shared[[]E]{elem: b.values, ctrl: &b.control}
}

// Allocate places a control block and a copy of v in one allocation from mem.
// V must hold no Go pointers. The allocation is returned to mem when the last
// handle of either kind is released.
func Allocate[V any](mem memory.Allocator, v V) (*Shared[*V], error) {
	values, storage, c, err := allocateBlock[V](mem, 1)
	if err != nil {
		return nil, err
	}
	values[0] = v
	p := &values[0]
	s := &deleterAlloc[*V]{
		v:       p,
		del: func(p *V) {
			destroy(any(p))
			var zero V
			*p = zero
		},
		mem:     mem,
		storage: storage,
	}
	c.initGuarded(s, any(p))
	return &Shared[*V]{elem: p, ctrl: c}, nil
}

// AllocateSlice places a control block and n copies of def in one
// allocation from mem. E must hold no Go pointers. n == 0 yields an empty
// handle; a negative n panics.
func AllocateSlice[E any](mem memory.Allocator, n int, def E) (*Shared[[]E], error) {
	if n < 0 {
		panic(fmt.Sprintf("rc: negative buffer length %d", n))
	}
	if n == 0 {
		return Empty[[]E](), nil
	}
	values, storage, c, err := allocateBlock[E](mem, n)
	if err != nil {
		return nil, err
	}
	for i := range values {
		values[i] = def
	}
	s := &deleterAlloc[[]E]{
		v: values,
		del: func(values []E) {
			destroy(any(values))
			var zero E
			for i := range values {
				values[i] = zero
			}
		},
		mem:     mem,
		storage: storage,
	}
	c.initGuarded(s, any(values))
	return &Shared[[]E]{elem: values, ctrl: c}, nil
}

// allocateBlock obtains one region holding the block state followed by n
// values of E and returns views of both.
func allocateBlock[E any](mem memory.Allocator, n int) ([]E, []byte, *control, error) {
	var zero E
	align := int(unsafe.Alignof(zero))
	if align < 8 {
		align = 8
	}
	offset := arrowx.AlignUp(stateSize, align)
	if !shape.PointerFreeOf[E]() {
		return nil, nil, nil, ErrPointerElement
	}
	storage, err := arrowx.Bytes(mem, offset+arrowx.SizeOf[E](n))
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := arrowx.View[blockState](storage, 1)
	if err == nil {
		var values []E
		if values, err = arrowx.View[E](storage[offset:], n); err == nil {
			return values, storage, &control{state: &st[0]}, nil
		}
	}
	mem.Free(storage)
	return nil, nil, nil, err
}
