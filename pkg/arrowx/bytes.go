package arrowx

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/moontrade/smartptr/pkg/shape"
	"github.com/moontrade/smartptr/pkg/util"
)

var (
	ErrAllocation     = errors.New("arrowx: allocation failed")
	ErrPointerElement = errors.New("arrowx: element type holds pointers")
	ErrMisaligned     = errors.New("arrowx: misaligned region")
	ErrShortBuffer    = errors.New("arrowx: region too small")
)

// Bytes obtains exactly n bytes from mem. A nil or short result, or a panic
// raised by the allocator, is reported as ErrAllocation.
func Bytes(mem memory.Allocator, n int) (b []byte, err error) {
	defer func() {
		if e := recover(); e != nil {
			b = nil
			err = fmt.Errorf("%w: %v", ErrAllocation, util.PanicToError(e))
		}
	}()
	b = mem.Allocate(n)
	if len(b) < n {
		if len(b) > 0 {
			mem.Free(b)
		}
		return nil, ErrAllocation
	}
	return b[:n], nil
}

// SizeOf returns the byte size of n values of E.
func SizeOf[E any](n int) int {
	var zero E
	return int(unsafe.Sizeof(zero)) * n
}

// AlignUp rounds size up to a multiple of align, which must be a power of two.
func AlignUp(size, align int) int {
	return (size + align - 1) &^ (align - 1)
}

// View reinterprets the head of b as n values of E. E must be pointer-free
// and the region suitably aligned for it.
func View[E any](b []byte, n int) ([]E, error) {
	if n == 0 {
		return nil, nil
	}
	if !shape.PointerFreeOf[E]() {
		return nil, ErrPointerElement
	}
	if len(b) < SizeOf[E](n) {
		return nil, ErrShortBuffer
	}
	var zero E
	if uintptr(unsafe.Pointer(&b[0]))%unsafe.Alignof(zero) != 0 {
		return nil, ErrMisaligned
	}
	return unsafe.Slice((*E)(unsafe.Pointer(&b[0])), n), nil
}
