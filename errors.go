package uthread

import "fmt"

// Sentinel errors for the library's four error kinds. Test with errors.Is;
// a caller that wants the offending id or argument attached gets it via
// fmt.Errorf("%w: ...", Err...), following the cause-wrapping idiom used
// throughout this pack (see eventloop/errors.go's TypeError/RangeError).
var (
	// ErrInvalidArgument covers a non-positive quantum length, a
	// non-positive sleep count, blocking thread 0, or sleeping thread 0.
	ErrInvalidArgument = fmt.Errorf("thread library error: invalid argument")

	// ErrNoSuchThread covers any operation targeting an id with no live
	// thread record.
	ErrNoSuchThread = fmt.Errorf("thread library error: no thread with given id exists")

	// ErrOutOfResources covers Spawn when the free-id set is empty.
	ErrOutOfResources = fmt.Errorf("thread library error: number of concurrent threads exceeds the maximum supported")

	// ErrSystemFailure covers an underlying OS primitive failing (timer
	// arming, signal masking) or an invariant violation (empty ready queue
	// at scheduler entry) that the library cannot recover from. Callers
	// reaching this have no state-preserving way forward; see
	// Scheduler.sysFatalf.
	ErrSystemFailure = fmt.Errorf("system error")
)

// argErrorf attaches context to ErrInvalidArgument, ErrNoSuchThread or
// ErrOutOfResources while keeping errors.Is(err, ErrX) true.
func argErrorf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}
