package arrowx

import (
	"reflect"
	"unsafe"

	"github.com/apache/arrow/go/v13/arrow/memory"
	unsafemem "github.com/moontrade/unsafe/memory"
)

// OffHeap is an arrow allocator backed by memory the Go collector never
// scans. Only pointer-free data may be placed in it.
var OffHeap memory.Allocator = offHeap{}

type offHeap struct{}

func (offHeap) Allocate(size int) []byte {
	if size < 1 {
		return nil
	}
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: uintptr(unsafemem.Alloc(uintptr(size))),
		Len:  size,
		Cap:  size,
	}))
}

func (offHeap) Reallocate(size int, b []byte) []byte {
	if len(b) < 1 {
		if size < 1 {
			return nil
		}
		return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
			Data: uintptr(unsafemem.Alloc(uintptr(size))),
			Len:  size,
			Cap:  size,
		}))
	}
	newAlloc := unsafemem.Realloc(unsafemem.Pointer(unsafe.Pointer(&b[0])), uintptr(size))
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: uintptr(newAlloc),
		Len:  size,
		Cap:  size,
	}))
}

func (offHeap) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	unsafemem.Free(unsafemem.Pointer(unsafe.Pointer(&b[0])))
}
