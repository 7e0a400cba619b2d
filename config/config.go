package config

import (
	"runtime"
)

var (
	// TraceTransitions logs every strong/weak count transition through the
	// rc package's zap logger.
	TraceTransitions = false
	// RecoverDisposePanics recovers panics raised by dispose logic so that
	// control block storage is still released. When false the panic
	// propagates to the goroutine that dropped the last strong handle.
	RecoverDisposePanics = true
	// AsyncDisposeWorkers caps the worker pool used by rc.Async deleters.
	AsyncDisposeWorkers = int32(runtime.GOMAXPROCS(0) * 4)
)
