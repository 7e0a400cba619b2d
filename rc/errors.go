package rc

import (
	"errors"

	"github.com/moontrade/smartptr/pkg/arrowx"
)

var (
	// ErrExpired is returned by Promote when the weak handle is empty or the
	// value it observed has already been disposed.
	ErrExpired = errors.New("rc: weak handle expired")
	// ErrEmpty is the panic value for access through an empty handle.
	ErrEmpty = errors.New("rc: access through empty handle")
	// ErrNotShared is the panic value for SharedFromThis on an object no
	// Shared handle owns.
	ErrNotShared = errors.New("rc: object is not owned by a shared handle")
	// ErrSelfReset is the panic value for resetting a handle to the address it
	// already owns.
	ErrSelfReset = errors.New("rc: reset to the address already owned")

	ErrAllocation     = arrowx.ErrAllocation
	ErrPointerElement = arrowx.ErrPointerElement
	ErrMisaligned     = arrowx.ErrMisaligned
)
