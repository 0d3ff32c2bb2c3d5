package uthread

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var errEmptyReadyQueue = errors.New("ready queue empty at scheduler entry")

// Scheduler is the single encapsulated scheduler object: one instance owns
// the thread table, ready queue, sleep table, current thread id and total
// quantum counter, plus the quantum clock and diagnostics. Concurrent use
// of the same Scheduler from multiple OS threads is not supported.
//
// Every exported method that touches that state takes mu, the concrete
// form of masking the quantum signal, since in this port the only other
// source of concurrent access is the tiny preempt watcher goroutine, which
// never touches scheduler state directly (see watchPreempt).
type Scheduler struct {
	cfg     Config
	quantum time.Duration
	log     *diagLogger
	clock   quantumClock

	mu            sync.Mutex
	threads       map[ThreadID]*threadRecord
	occupied      []bool
	freeCount     int
	ready         readyQueue
	sleeping      sleepTable
	current       ThreadID
	totalQuantums int

	// preemptPending latches a quantum expiry until some thread's own
	// goroutine next calls Yield. Go gives no portable way to suspend an
	// arbitrary goroutine from outside, so schedule() here is always
	// invoked by the thread that is giving up the CPU, never by a third
	// party. See Yield's doc comment.
	preemptPending atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// newScheduler constructs a Scheduler in the state Init requires: an empty
// thread table, a fully free id set, and no current thread yet (the
// caller is expected to register thread 0 and call schedule once,
// immediately after this returns).
func newScheduler(cfg Config, quantumUsecs int) (*Scheduler, error) {
	clock, err := newQuantumClock()
	if err != nil {
		return nil, argErrorf(ErrSystemFailure, "constructing quantum clock: %v", err)
	}
	s := &Scheduler{
		cfg:      cfg,
		quantum:  time.Duration(quantumUsecs) * time.Microsecond,
		log:      newDiagLogger(),
		clock:    clock,
		threads:  make(map[ThreadID]*threadRecord, cfg.MaxThreads),
		occupied: make([]bool, cfg.MaxThreads),
		sleeping: make(sleepTable),
		stopCh:   make(chan struct{}),
	}
	s.freeCount = cfg.MaxThreads
	go s.watchPreempt()
	return s, nil
}

// watchPreempt stands in for a preemption signal handler that would
// otherwise double as the scheduling entry point. Because it cannot
// forcibly suspend whichever goroutine happens to be the current thread,
// it does not call schedule itself; it only latches the expiry so the
// current thread's own next Yield call can act on it at a genuine Go-level
// safepoint.
func (s *Scheduler) watchPreempt() {
	for {
		select {
		case <-s.clock.Fired():
			s.preemptPending.Store(true)
		case <-s.stopCh:
			return
		}
	}
}

// smallestFreeIDLocked picks the smallest available thread id, so spawn
// draws ids in ordered fashion rather than arbitrarily. mu must be held.
func (s *Scheduler) smallestFreeIDLocked() (ThreadID, bool) {
	if s.freeCount == 0 {
		return 0, false
	}
	for i, taken := range s.occupied {
		if !taken {
			return ThreadID(i), true
		}
	}
	return 0, false
}

// schedule advances the scheduler by one quantum: it ages sleepers,
// re-enqueues the outgoing thread if it is still runnable, dispatches the
// next ready thread, and re-arms the quantum timer. It must be called by
// the goroutine that is itself the current thread, giving up the CPU for
// one of three reasons: it is yielding at a quantum boundary, it is
// blocking/sleeping itself, or it is terminating itself. (Init calls it
// once, directly, to dispatch thread 0 for the first time.)
//
// schedule never parks the calling goroutine; it only performs the
// bookkeeping and, if a different thread is chosen, sends that thread's
// resume token (waiting only until the target receives it, see restore). Whether the caller itself must then park is the caller's
// decision: Sleep and Block always park afterward (they gave the CPU to
// someone else by construction); Terminate(self) calls runtime.Goexit
// instead; Yield checks whether it is still current before deciding.
func (s *Scheduler) schedule() {
	// Mask the quantum signal for the duration of the scheduler's own
	// bookkeeping, unmask on every exit path. A second SIGVTALRM arriving
	// mid-reshuffle would only ever set preemptPending again, which is
	// harmless, but masking keeps the quantum clock's Arm/Mask contract
	// exercised consistently.
	if err := s.clock.Mask(); err != nil {
		s.sysFatalf("masking quantum signal", err)
		return
	}
	defer func() {
		if err := s.clock.Unmask(); err != nil {
			s.sysFatalf("unmasking quantum signal", err)
		}
	}()

	s.mu.Lock()
	s.preemptPending.Store(false)
	s.totalQuantums++

	outgoing := s.threads[s.current]

	// Step 3: age sleepers. Iterates a snapshot (sleepTable.age), so this
	// is safe even though waking a thread here can be followed, later in
	// this same call, by that same thread being picked as next.
	for _, id := range s.sleeping.age() {
		t, ok := s.threads[id]
		if !ok {
			continue
		}
		t.state = Ready
		t.readyElem = s.ready.PushBack(id)
		s.trace("wake", id, nil)
	}

	// Step 4: the outgoing thread only gets re-enqueued if it is still
	// RUNNING, i.e. it yielded at a quantum boundary rather than having
	// already transitioned itself to Blocked/Sleeping, or been freed by a
	// self-terminate before this call.
	if outgoing != nil && outgoing.state == Running {
		outgoing.state = Ready
		outgoing.readyElem = s.ready.PushBack(outgoing.id)
	}

	// Step 5.
	nextID, ok := s.ready.PopFront()
	if !ok {
		s.mu.Unlock()
		s.sysFatalf("ready queue empty at scheduler entry", errEmptyReadyQueue)
		return
	}
	next := s.threads[nextID]
	next.readyElem = nil

	// Step 6.
	s.current = nextID
	next.state = Running
	next.quantumCount++
	total := s.totalQuantums
	s.mu.Unlock()

	// Step 7: re-arm, never left free-running.
	if err := s.clock.Arm(s.quantum); err != nil {
		s.sysFatalf("arming quantum timer", err)
		return
	}

	s.trace("dispatch", nextID, map[string]int{"total_quantums": total})

	// Step 8. Skipped when next is the thread that just called schedule:
	// nothing to hand off, it never stopped running.
	if outgoing == nil || next.id != outgoing.id {
		next.restore()
	}
}

// currentRecordLocked returns the thread record for the currently running
// thread. mu must be held.
func (s *Scheduler) currentRecordLocked() *threadRecord {
	return s.threads[s.current]
}

// parkSelfOrExit blocks the calling thread's own goroutine until some
// future schedule() restores it, unless the thread was terminated by
// another thread while parked, in which case it must not resume
// execution of its own body at all, so it exits via runtime.Goexit
// (running deferred cleanup, including closing threadRecord.done).
func parkSelfOrExit(t *threadRecord) {
	if terminated := t.save(); terminated {
		runtime.Goexit()
	}
}

// Recover runs fn and converts a fatal SYSTEM_FAILURE panic raised by
// sysFatalf back into a returned error instead of letting it crash the
// process. A system failure is unconditionally fatal in normal operation;
// Recover exists only so tests can exercise that path (e.g. the
// ready-queue-empty abort) without taking the whole process down with it.
// Any other panic is re-raised unchanged.
func (s *Scheduler) Recover(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok && errors.Is(e, ErrSystemFailure) {
			err = e
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

// shutdown stops the preempt watcher and releases the quantum clock. It
// does not touch live thread goroutines; callers that need every
// goroutine reaped (tests) should Terminate each thread first.
func (s *Scheduler) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		_ = s.clock.Close()
	})
}
