package rc

import (
	"io"
	"reflect"

	"github.com/apache/arrow/go/v13/arrow/memory"
	logger "github.com/moontrade/log"
)

// Disposer is implemented by values that release resources when the last
// Shared handle owning them is released. Values that implement io.Closer
// instead are closed.
type Disposer interface {
	Dispose()
}

// strategy is how a control block destroys its value and frees itself.
type strategy interface {
	dispose()
	releaseStorage()
}

// ownedDelete destroys the value with ordinary deallocation: Dispose or
// Close, element by element for buffers, then the reference is dropped.
type ownedDelete[T any] struct {
	v T
}

func (s *ownedDelete[T]) dispose() {
	v := s.v
	var zero T
	s.v = zero
	destroy(any(v))
}

func (s *ownedDelete[T]) releaseStorage() {}

// deleterOnly hands the value to a caller-supplied deleter.
type deleterOnly[T any] struct {
	v   T
	del func(T)
}

func (s *deleterOnly[T]) dispose() {
	v, del := s.v, s.del
	var zero T
	s.v, s.del = zero, nil
	del(v)
}

func (s *deleterOnly[T]) releaseStorage() {}

// deleterAlloc hands the value to a caller-supplied deleter. Its block state,
// and for Allocate helpers the value itself, live in storage obtained from
// mem, which is returned on releaseStorage.
type deleterAlloc[T any] struct {
	v       T
	del     func(T)
	mem     memory.Allocator
	storage []byte
}

func (s *deleterAlloc[T]) dispose() {
	v, del := s.v, s.del
	var zero T
	s.v, s.del = zero, nil
	if del != nil {
		del(v)
	}
}

func (s *deleterAlloc[T]) releaseStorage() {
	storage, mem := s.storage, s.mem
	s.storage, s.mem = nil, nil
	for i := range storage {
		storage[i] = 0
	}
	mem.Free(storage)
}

// destroy runs the destructor of v. Buffers of values have every element
// destroyed; buffers of pointers or interfaces do not own their pointees.
func destroy(v any) {
	if v == nil || destroyOne(v) {
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			destroyElem(rv.Index(i))
		}
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Array {
			return
		}
		arr := rv.Elem()
		for i := 0; i < arr.Len(); i++ {
			destroyElem(arr.Index(i))
		}
	}
}

func destroyElem(ev reflect.Value) {
	switch ev.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.UnsafePointer,
		reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		return
	}
	if ev.CanAddr() {
		destroyOne(ev.Addr().Interface())
	}
}

func destroyOne(v any) bool {
	switch d := v.(type) {
	case Disposer:
		if isNil(d) {
			return true
		}
		d.Dispose()
		return true
	case io.Closer:
		if isNil(d) {
			return true
		}
		if err := d.Close(); err != nil {
			logger.WarnErr(err, "rc: close failed")
		}
		return true
	}
	return false
}

// isNil reports whether v is a nil pointer, slice, map, chan or func, or an
// interface that is nil or holds one. Other kinds are never nil.
func isNil[T any](v T) bool {
	return nilValue(reflect.ValueOf(&v).Elem())
}

func nilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Interface:
		return rv.IsNil() || nilValue(rv.Elem())
	case reflect.Pointer, reflect.Slice, reflect.Map,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
