package rc

import (
	"strings"
	"testing"
)

type recorder struct {
	events []string
}

type recordingStrategy struct {
	r *recorder
}

func (s recordingStrategy) dispose() {
	s.r.events = append(s.r.events, "dispose")
}

func (s recordingStrategy) releaseStorage() {
	s.r.events = append(s.r.events, "storage")
}

func newRecorded() (*control, *recorder) {
	r := &recorder{}
	c := new(control)
	c.init(recordingStrategy{r: r}, nil)
	return c, r
}

func TestControl_Init(t *testing.T) {
	c, r := newRecorded()
	if c.useCount() != 1 || c.weakCount() != 1 {
		t.Fatalf("expected 1/1, got %d/%d", c.useCount(), c.weakCount())
	}
	if c.id == 0 {
		t.Fatal("expected a block id")
	}
	c.releaseStrong()
	if strings.Join(r.events, ",") != "dispose,storage" {
		t.Fatal(r.events)
	}
}

func TestControl_DisposeOnce(t *testing.T) {
	c, r := newRecorded()
	c.addStrong()
	c.addStrong()
	c.addWeak()

	c.releaseStrong()
	c.releaseStrong()
	if len(r.events) != 0 {
		t.Fatal(r.events)
	}
	c.releaseStrong()
	if strings.Join(r.events, ",") != "dispose" {
		t.Fatal(r.events)
	}
	if !c.expired() {
		t.Fatal("expected expired")
	}
	if c.weakCount() != 1 {
		t.Fatalf("expected weak 1, got %d", c.weakCount())
	}
	c.releaseWeak()
	if strings.Join(r.events, ",") != "dispose,storage" {
		t.Fatal(r.events)
	}
	if c.state != nil || c.strategy != nil {
		t.Fatal("expected released block")
	}
}

func TestControl_StorageOutlivesValue(t *testing.T) {
	c, r := newRecorded()
	c.addWeak()
	c.releaseWeak()
	if len(r.events) != 0 {
		t.Fatal(r.events)
	}
	c.releaseStrong()
	if strings.Join(r.events, ",") != "dispose,storage" {
		t.Fatal(r.events)
	}
}

func TestControl_TryAddStrong(t *testing.T) {
	c, _ := newRecorded()
	c.addWeak()
	if !c.tryAddStrong() {
		t.Fatal("expected promotion")
	}
	if c.useCount() != 2 {
		t.Fatalf("expected 2, got %d", c.useCount())
	}
	c.releaseStrong()
	c.releaseStrong()
	if c.tryAddStrong() {
		t.Fatal("promoted a disposed block")
	}
	if c.useCount() != 0 || c.weakCount() != 1 {
		t.Fatalf("failed promotion mutated counts: %d/%d", c.useCount(), c.weakCount())
	}
	c.releaseWeak()
}

func TestControl_NegativeStrongPanics(t *testing.T) {
	c, _ := newRecorded()
	c.addWeak()
	c.releaseStrong()
	defer func() {
		e := recover()
		if e == nil || !strings.Contains(e.(string), "negative strong count") {
			t.Fatalf("expected negative count panic, got %v", e)
		}
	}()
	c.releaseStrong()
}

func TestControl_AddStrongAfterDisposePanics(t *testing.T) {
	c, _ := newRecorded()
	c.addWeak()
	c.releaseStrong()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
		c.releaseWeak()
	}()
	c.addStrong()
}

type panicky struct{}

func (*panicky) Dispose() {
	panic("dispose failed")
}

func TestControl_DisposePanicRecovered(t *testing.T) {
	before := stats.DisposePanics.Load()
	s := New(&panicky{})
	w := s.Weak()
	s.Release()
	if !w.Expired() {
		t.Fatal("expected expired")
	}
	if stats.DisposePanics.Load() < before+1 {
		t.Fatal("dispose panic not counted")
	}
	w.Release()
}

// node holds a weak handle to the block that owns it and releases it while
// being disposed.
type node struct {
	self     *Weak[*node]
	disposed int
}

func (n *node) Dispose() {
	n.disposed++
	n.self.Release()
}

func TestControl_ReentrantDispose(t *testing.T) {
	n := &node{}
	s := New(n)
	n.self = s.Weak()
	if s.ctrl.weakCount() != 2 {
		t.Fatalf("expected weak 2, got %d", s.ctrl.weakCount())
	}
	c := s.ctrl
	s.Release()
	if n.disposed != 1 {
		t.Fatalf("expected 1 dispose, got %d", n.disposed)
	}
	if c.state != nil {
		t.Fatal("expected storage released")
	}
}

func TestControl_InitGuardedDisposesOnPanic(t *testing.T) {
	r := &recorder{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
		if strings.Join(r.events, ",") != "dispose,storage" {
			t.Fatal(r.events)
		}
	}()
	c := new(control)
	// A SelfRef bound to the wrong element type panics during construction.
	c.initGuarded(recordingStrategy{r: r}, &mismatched{})
}

type mismatched struct {
	SelfRef[*node]
}

func BenchmarkControl_AddRelease(b *testing.B) {
	c, _ := newRecorded()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.addStrong()
		c.releaseStrong()
	}
}
