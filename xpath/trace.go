package xpath

import (
	"io"
	"log/slog"
	"os"
)

// Tracer follows the grammar rules visited while an expression is
// validated and compiled.
type Tracer interface {
	Enter(string)
	Leave(string)
	Error(string, error)
}

type discardTracer struct{}

func (_ discardTracer) Enter(_ string)          {}
func (_ discardTracer) Leave(_ string)          {}
func (_ discardTracer) Error(_ string, _ error) {}

type stdioTracer struct {
	logger   *slog.Logger
	depth    int
	errcount int
}

func TraceStdout() Tracer {
	return TraceWriter(os.Stdout)
}

func TraceStderr() Tracer {
	return TraceWriter(os.Stderr)
}

func TraceWriter(w io.Writer) Tracer {
	tracer := stdioTracer{
		logger: stdioLogger(w),
	}
	return &tracer
}

func stdioLogger(w io.Writer) *slog.Logger {
	opts := slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return slog.New(slog.NewTextHandler(w, &opts))
}

func (t *stdioTracer) Enter(rule string) {
	t.depth++
	t.logger.Debug("enter rule", "rule", rule, "depth", t.depth)
}

func (t *stdioTracer) Leave(rule string) {
	t.logger.Debug("leave rule", "rule", rule, "depth", t.depth)
	t.depth--
}

func (t *stdioTracer) Error(rule string, err error) {
	t.errcount++
	t.logger.Error("rule failed", "rule", rule, "depth", t.depth, "count", t.errcount, "err", err)
}
