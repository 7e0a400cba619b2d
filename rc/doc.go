// Package rc provides reference-counted shared ownership for Go values whose
// lifetime has to end deterministically: pooled buffers, file and socket
// wrappers, off-heap regions.
//
// A Shared handle keeps the managed value alive. A Weak handle observes it and
// can be promoted to a Shared handle only while at least one Shared handle
// remains. Every handle refers to one control block that counts both kinds of
// reference:
//
//   - the value is disposed exactly once, when the last Shared handle is
//     released;
//   - the control block's storage is released exactly once, when the last
//     handle of either kind is released.
//
// Go has no destructors, so copying is Clone and leaving scope is Release.
// Handles are returned as pointers; independent clones may be used from any
// goroutine, a single handle value may not.
//
//	conn := rc.New(dial())
//	defer conn.Release()
//	w := conn.Weak()
//	defer w.Release()
//	if c := w.Lock(); !c.IsEmpty() {
//		defer c.Release()
//		c.Must().Send(msg)
//	}
package rc
