// Package shape classifies the element a handle exposes as a single value, a
// fixed-size buffer or an unbounded buffer. Classification happens once, when
// the owning control block is built.
package shape

import (
	"reflect"
	"strconv"
)

type Kind uint8

const (
	Single Kind = iota
	Fixed
	Unbounded
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Fixed:
		return "fixed"
	case Unbounded:
		return "unbounded"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Shape is the element layout of a managed value. Extent is the number of
// slots: 1 for a single value, N for [N]E or *[N]E, len(s) for []E.
type Shape struct {
	Kind   Kind
	Extent int
}

func (s Shape) String() string {
	return s.Kind.String() + "[" + strconv.Itoa(s.Extent) + "]"
}

// Of classifies v. A nil value is a single value with no extent.
func Of(v any) Shape {
	if v == nil {
		return Shape{}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Shape{}
		}
		if et := rv.Type().Elem(); et.Kind() == reflect.Array {
			return Shape{Kind: Fixed, Extent: et.Len()}
		}
	case reflect.Array:
		return Shape{Kind: Fixed, Extent: rv.Len()}
	case reflect.Slice:
		return Shape{Kind: Unbounded, Extent: rv.Len()}
	}
	return Shape{Kind: Single, Extent: 1}
}

// PointerFree reports whether values of t hold no Go pointers and may
// therefore live in memory the collector does not scan.
func PointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || PointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !PointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}

// PointerFreeOf is PointerFree for a type parameter.
func PointerFreeOf[T any]() bool {
	return PointerFree(reflect.TypeOf((*T)(nil)).Elem())
}

// Address returns the memory address v refers to, or 0 when v carries no
// address identity (plain values, funcs, nil).
func Address(v any) uintptr {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan:
		if rv.IsNil() {
			return 0
		}
		return rv.Pointer()
	case reflect.Slice:
		if rv.IsNil() || rv.Cap() == 0 {
			return 0
		}
		return rv.Pointer()
	}
	return 0
}
