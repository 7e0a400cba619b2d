package rc

import (
	"sync/atomic"

	"github.com/moontrade/smartptr/config"
	"go.uber.org/zap"
)

var (
	tracer atomic.Pointer[zap.Logger]
	nopLog = zap.NewNop()
)

// Logger returns the logger count transitions are traced to.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := tracer.Load(); l != nil {
		return l
	}
	return nopLog
}

// SetLogger configures the transition logger. A nil logger restores the
// no-op default. Tracing also requires config.TraceTransitions.
func SetLogger(l *zap.Logger) {
	tracer.Store(l)
}

func (c *control) trace(op string, strong, weak int32) {
	if !config.TraceTransitions {
		return
	}
	Logger().Debug("rc",
		zap.Uint64("block", c.id),
		zap.String("op", op),
		zap.Int32("strong", strong),
		zap.Int32("weak", weak))
}
