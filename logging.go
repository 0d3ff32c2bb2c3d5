package uthread

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// diagLogger is the structured-logging facade used for the library's
// diagnostics: a Warning-level entry when a spawned entry function returns
// (libErrorf), an Err-level entry before a fatal system failure
// (sysFatalf), and Debug-level scheduling trace events. Argument and lookup
// errors are not logged; they are only returned, with error text that
// starts with "thread library error:".
type diagLogger = logiface.Logger[*stumpy.Event]

// newDiagLogger builds the default logger: stumpy writing newline-delimited
// JSON to stderr, matching stumpy.L.New's documented usage.
func newDiagLogger() *diagLogger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
			_, err := os.Stderr.Write(append(e.Bytes(), '\n'))
			return err
		})),
	)
}

// libErrorf logs a thread-library-error-class diagnostic at Warning level
// with the thread id and err attached. It does not change control flow.
// Its only caller is the implicit self-terminate of a spawned thread whose
// entry function returned.
func (s *Scheduler) libErrorf(tid ThreadID, msg string, err error) {
	s.log.Warning().
		Int(`tid`, int(tid)).
		Err(err).
		Log(msg)
}

// sysFatalf logs a system-error-class diagnostic and aborts the process: a
// failure here is not recoverable by the library.
func (s *Scheduler) sysFatalf(msg string, err error) {
	s.log.Err().
		Err(err).
		Log(msg)
	panic(argErrorf(ErrSystemFailure, "%s: %v", msg, err))
}

// trace logs a Debug-level scheduling event: init, spawn, dispatch, block,
// resume, sleep, wake, terminate, terminate-all. Purely observational, never consulted for control flow.
func (s *Scheduler) trace(event string, tid ThreadID, fields map[string]int) {
	b := s.log.Debug().Int(`tid`, int(tid))
	for k, v := range fields {
		b = b.Int(k, v)
	}
	b.Log(event)
}
