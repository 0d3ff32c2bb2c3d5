package uthread

// ThreadID identifies a uthread for the lifetime of its thread record.
// Ids are drawn from [0, Config.MaxThreads) and are reused once freed.
type ThreadID int

// MainThread is the distinguished id of the thread created by Init.
// Terminating it tears down the process; it may not be blocked or slept.
const MainThread ThreadID = 0

// ThreadState is one of the four states a live thread record may be in.
type ThreadState uint8

const (
	// Ready means the thread is runnable and sitting in the ready queue.
	Ready ThreadState = iota
	// Running means the thread currently owns the CPU. Exactly one thread
	// is Running at any steady state, between preemption points.
	Running
	// Sleeping means the thread is parked in the sleep table, waiting for
	// its remaining quantum count to reach zero.
	Sleeping
	// Blocked means the thread is parked indefinitely, waiting for Resume.
	Blocked
)

// String renders the state the way diagnostics and tests expect it.
func (s ThreadState) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Sleeping:
		return "SLEEPING"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// Config bounds a Scheduler's resource usage. The zero value is not valid;
// use DefaultConfig as a starting point.
type Config struct {
	// MaxThreads is the hard upper bound on concurrently live threads.
	// The original C implementation this library was distilled from hard
	// codes 100; kept here as the default for parity.
	MaxThreads int

	// StackSize is carried forward from the original per-thread stack
	// buffer size for API and diagnostic parity. Go goroutine stacks grow
	// on demand and are never allocated from this field directly; it
	// exists so Config round-trips the same knobs the spec names.
	StackSize int
}

// DefaultConfig mirrors the historical MAX_THREAD_NUM/STACK_SIZE constants.
func DefaultConfig() Config {
	return Config{
		MaxThreads: 100,
		StackSize:  4096,
	}
}

// threadRecord is the per-thread bookkeeping entry: id, state, stack-stand-in
// and the saved context needed to resume it. It is only ever mutated while
// Scheduler.mu is held.
type threadRecord struct {
	id    ThreadID
	state ThreadState

	// quantumCount is the number of quanta in which this thread was the
	// running thread, including the current one if it is running now.
	quantumCount int

	// resumeGate is this thread's saved context in Go terms: the owning
	// goroutine blocks receiving from it to "save", and the scheduler
	// sends on it to "restore". See context.go.
	resumeGate chan struct{}

	// body is the thread's entry function. Nil only for MainThread, whose
	// initial context is the caller's own goroutine, captured rather than
	// synthesized.
	body func()

	// started marks whether the backing goroutine's wrapper has already
	// begun running body (see context.go). It is set but not read
	// anywhere in the package.
	started bool

	// done is closed once a spawned thread's backing goroutine has fully
	// exited. Nothing in the package waits on it; Shutdown does not.
	done chan struct{}

	// readyElem is this thread's node in the ready queue's intrusive list,
	// non-nil iff state == Ready. Gives O(1) removal by id.
	readyElem *readyNode
}
