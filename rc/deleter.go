package rc

import (
	"context"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"
	logger "github.com/moontrade/log"
	"github.com/moontrade/smartptr/config"
	"github.com/moontrade/smartptr/pkg/util"
)

var (
	disposePool     gopool.Pool
	disposePoolOnce sync.Once
)

// DisposePool returns the worker pool Async deleters run on. It is created on
// first use with config.AsyncDisposeWorkers workers.
func DisposePool() gopool.Pool {
	disposePoolOnce.Do(func() {
		disposePool = gopool.NewPool("rc.dispose", config.AsyncDisposeWorkers, gopool.NewConfig())
		disposePool.SetPanicHandler(func(_ context.Context, e interface{}) {
			stats.DisposePanics.Incr()
			logger.Error(util.PanicToError(e), "rc: async dispose panic")
		})
	})
	return disposePool
}

// Async wraps del so that it runs on DisposePool instead of the goroutine
// that released the last strong handle. Useful for deleters that block, such
// as closing network connections or flushing files.
func Async[T any](del func(T)) func(T) {
	return AsyncOn(DisposePool(), del)
}

// AsyncOn is Async on a caller-supplied pool.
func AsyncOn[T any](pool gopool.Pool, del func(T)) func(T) {
	return func(v T) {
		pool.Go(func() {
			del(v)
		})
	}
}
