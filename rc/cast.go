package rc

import (
	"fmt"
	"unsafe"
)

// StaticCast returns a handle sharing s's block and exposing conv(s.Get()).
// The conversion is checked by the compiler where conv is written, e.g.
//
//	var r *rc.Shared[io.Reader] = rc.StaticCast(file, func(f *os.File) io.Reader { return f })
//
// An empty s yields an empty handle and conv is not called.
func StaticCast[U, T any](s *Shared[T], conv func(T) U) *Shared[U] {
	if s.IsEmpty() {
		return Empty[U]()
	}
	return Alias(s, conv(s.elem))
}

// DynamicCast asserts s's element to U at run time. If the assertion fails,
// or s is empty, it returns an empty handle and s is left untouched.
func DynamicCast[U, T any](s *Shared[T]) *Shared[U] {
	if s.IsEmpty() {
		return Empty[U]()
	}
	u, ok := any(s.elem).(U)
	if !ok || isNil(u) {
		return Empty[U]()
	}
	return Alias(s, u)
}

// ReinterpretCast reinterprets the bits of s's element as a U. T and U must
// have the same size; anything else is a programming error and panics.
func ReinterpretCast[U, T any](s *Shared[T]) *Shared[U] {
	var (
		t T
		u U
	)
	if unsafe.Sizeof(t) != unsafe.Sizeof(u) {
		panic(fmt.Sprintf("rc: reinterpret %s (%d bytes) as %s (%d bytes)",
			typeName[T](), unsafe.Sizeof(t), typeName[U](), unsafe.Sizeof(u)))
	}
	if s.IsEmpty() {
		return Empty[U]()
	}
	elem := s.elem
	return Alias(s, *(*U)(unsafe.Pointer(&elem)))
}
