package rc

import (
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/moontrade/smartptr/pkg/arrowx"
	"github.com/moontrade/smartptr/pkg/shape"
)

type tracked struct {
	n *int
}

func (t *tracked) Dispose() {
	*t.n++
}

type vec3 struct {
	X, Y, Z float64
}

func TestMake(t *testing.T) {
	n := 0
	s := Make(tracked{n: &n})
	if s.Shape() != (shape.Shape{Kind: shape.Single, Extent: 1}) {
		t.Fatal(s.Shape())
	}
	c := s.Clone()
	s.Release()
	if n != 0 {
		t.Fatal("disposed early")
	}
	c.Release()
	if n != 1 {
		t.Fatalf("expected 1 dispose, got %d", n)
	}
}

func TestMakeFunc(t *testing.T) {
	s := MakeFunc(func(v *vec3) { v.X, v.Y, v.Z = 1, 2, 3 })
	v := s.Get()
	if *v != (vec3{1, 2, 3}) {
		t.Fatal(*v)
	}
	w := s.Weak()
	s.Release()
	if *v != (vec3{}) {
		t.Fatal("expected the value destroyed in place")
	}
	if !w.Lock().IsEmpty() {
		t.Fatal("expected expired")
	}
	w.Release()
}

func TestMakeSlice(t *testing.T) {
	n := 0
	s := MakeSlice(3, tracked{n: &n})
	if s.Shape() != (shape.Shape{Kind: shape.Unbounded, Extent: 3}) {
		t.Fatal(s.Shape())
	}
	for i := 0; i < 3; i++ {
		if Index(s, i).n != &n {
			t.Fatalf("slot %d not constructed from the default", i)
		}
	}
	s.Release()
	if n != 3 {
		t.Fatalf("expected 3 disposes, got %d", n)
	}
	if !MakeSlice(0, 1).IsEmpty() {
		t.Fatal("expected empty")
	}
	defer func() {
		e := recover()
		if e == nil || !strings.Contains(e.(string), "negative") {
			t.Fatalf("expected panic, got %v", e)
		}
	}()
	MakeSlice(-1, 1)
}

func TestAllocate(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	s, err := Allocate(mem, vec3{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if *s.Get() != (vec3{1, 2, 3}) {
		t.Fatal(*s.Get())
	}
	s.Get().X = 10
	w := s.Weak()
	c := w.Lock()
	if c.Get().X != 10 {
		t.Fatal("expected the same value")
	}
	c.Release()
	s.Release()
	if mem.CurrentAlloc() == 0 {
		t.Fatal("storage released while a weak handle remains")
	}
	w.Release()
	mem.AssertSize(t, 0)
}

func TestAllocate_PointerElement(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	x := 1
	_, err := Allocate(mem, &x)
	if err != ErrPointerElement {
		t.Fatalf("expected ErrPointerElement, got %v", err)
	}
	_, err = AllocateSlice(mem, 2, tracked{})
	if err != ErrPointerElement {
		t.Fatalf("expected ErrPointerElement, got %v", err)
	}
	mem.AssertSize(t, 0)
}

func TestAllocateSlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	s, err := AllocateSlice(mem, 4, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, v := range s.Get() {
		sum += v
	}
	if sum != 6 || s.Extent() != 4 {
		t.Fatalf("unexpected buffer sum=%v extent=%d", sum, s.Extent())
	}
	c := s.Clone()
	s.Release()
	c.Release()
	mem.AssertSize(t, 0)

	empty, err := AllocateSlice(mem, 0, 1.5)
	if err != nil || !empty.IsEmpty() {
		t.Fatal("expected empty handle")
	}
}

func TestAllocate_Failure(t *testing.T) {
	mem := arrowx.NewLimited(memory.NewGoAllocator(), stateSize)
	if _, err := Allocate(mem, vec3{}); !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	if _, err := AllocateSlice(mem, 1024, int64(0)); !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	if mem.Used() != 0 {
		t.Fatalf("leaked %d bytes", mem.Used())
	}
}

func BenchmarkMake(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Make(vec3{}).Release()
	}
}

var gaugeDisposes int

// gauge is pointer-free but still has a destructor.
type gauge struct {
	v int64
}

func (g *gauge) Dispose() {
	gaugeDisposes++
}

func TestAllocate_Dispose(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	gaugeDisposes = 0
	s, err := Allocate(mem, gauge{v: 1})
	if err != nil {
		t.Fatal(err)
	}
	s.Release()
	if gaugeDisposes != 1 {
		t.Fatalf("expected 1 dispose, got %d", gaugeDisposes)
	}
	buf, err := AllocateSlice(mem, 3, gauge{v: 2})
	if err != nil {
		t.Fatal(err)
	}
	buf.Release()
	if gaugeDisposes != 4 {
		t.Fatalf("expected 4 disposes, got %d", gaugeDisposes)
	}
	mem.AssertSize(t, 0)
}
