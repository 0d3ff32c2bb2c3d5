package uthread

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
)

// errEntryReturned is logged when a spawned thread's entry function
// returns normally instead of calling Terminate on itself. Treated as a
// well-defined implicit self-terminate rather than undefined behavior.
var errEntryReturned = errors.New("thread entry function returned without terminating")

// defaultSched is the package-level scheduler instance the free functions
// below operate on, mirroring the original library's single global
// scheduler. Access is guarded by defaultSchedMu so Init/Shutdown can
// safely replace it between independent test runs; the Scheduler itself
// still forbids concurrent use from multiple OS threads.
var (
	defaultSchedMu sync.Mutex
	defaultSched   *Scheduler
)

// Init brings up the scheduler: it validates quantumUsecs, builds the
// thread table and quantum clock, registers thread 0 for the calling
// goroutine, and performs the first scheduling event so that
// GetTotalQuantums reads 1 and thread 0 is the running thread when Init
// returns.
func Init(quantumUsecs int) (ThreadID, error) {
	if quantumUsecs <= 0 {
		return 0, argErrorf(ErrInvalidArgument, "quantum_usecs must be positive, got %d", quantumUsecs)
	}

	defaultSchedMu.Lock()
	defer defaultSchedMu.Unlock()
	if defaultSched != nil {
		return 0, argErrorf(ErrInvalidArgument, "library already initialized")
	}

	s, err := newScheduler(DefaultConfig(), quantumUsecs)
	if err != nil {
		return 0, err
	}

	main := newMainThreadRecord()
	s.mu.Lock()
	s.threads[main.id] = main
	s.occupied[main.id] = true
	s.freeCount--
	s.current = main.id
	s.mu.Unlock()

	defaultSched = s
	s.trace("init", main.id, map[string]int{"quantum_usecs": quantumUsecs})
	s.schedule()
	return main.id, nil
}

// Shutdown tears down the scheduler's background goroutines and releases
// its quantum clock. It exists purely so tests can clean up a scheduler
// instance between cases without leaking the preempt watcher goroutine or
// OS timer.
func Shutdown(_ context.Context) error {
	defaultSchedMu.Lock()
	s := defaultSched
	defaultSched = nil
	defaultSchedMu.Unlock()
	if s == nil {
		return argErrorf(ErrInvalidArgument, "library not initialized")
	}
	s.shutdown()
	return nil
}

func currentScheduler() (*Scheduler, error) {
	defaultSchedMu.Lock()
	s := defaultSched
	defaultSchedMu.Unlock()
	if s == nil {
		return nil, argErrorf(ErrInvalidArgument, "library not initialized: call Init first")
	}
	return s, nil
}

// Spawn creates a new thread running entry, returning its id.
func Spawn(entry func()) (ThreadID, error) {
	s, err := currentScheduler()
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, argErrorf(ErrInvalidArgument, "entry function must not be nil")
	}

	s.mu.Lock()
	id, ok := s.smallestFreeIDLocked()
	if !ok {
		s.mu.Unlock()
		return 0, argErrorf(ErrOutOfResources, "no more than %d concurrent threads are supported", s.cfg.MaxThreads)
	}
	s.occupied[id] = true
	s.freeCount--
	t := newSpawnedThreadRecord(id, entry, func(tid ThreadID) {
		s.libErrorf(tid, "entry function returned", errEntryReturned)
		_, _ = terminateOn(s, tid)
	})
	s.threads[id] = t
	t.readyElem = s.ready.PushBack(id)
	s.mu.Unlock()

	s.trace("spawn", id, nil)
	return id, nil
}

// Terminate frees tid's resources. tid == MainThread frees every thread
// and exits the process with status 0. tid == the calling thread invokes
// the scheduler and does not return. Any other tid is simply removed from
// the thread table, ready queue and sleep table.
func Terminate(tid ThreadID) (ThreadID, error) {
	s, err := currentScheduler()
	if err != nil {
		return 0, err
	}
	return terminateOn(s, tid)
}

func terminateOn(s *Scheduler, tid ThreadID) (ThreadID, error) {
	if tid == MainThread {
		s.mu.Lock()
		for _, t := range s.threads {
			if t.id != MainThread {
				t.discard()
			}
		}
		s.mu.Unlock()
		s.trace("terminate-all", MainThread, nil)
		s.shutdown()
		os.Exit(0)
		return 0, nil // unreachable
	}

	s.mu.Lock()
	t, ok := s.threads[tid]
	if !ok {
		s.mu.Unlock()
		return 0, argErrorf(ErrNoSuchThread, "no thread with id %d exists", tid)
	}

	self := tid == s.current
	if t.readyElem != nil {
		s.ready.remove(t.readyElem)
		t.readyElem = nil
	}
	delete(s.sleeping, tid)
	delete(s.threads, tid)
	s.occupied[tid] = false
	s.freeCount++
	s.mu.Unlock()

	s.trace("terminate", tid, nil)

	if self {
		// The record is already gone: there is nothing left to save, and
		// nothing will ever restore this goroutine, so it must leave by
		// runtime.Goexit rather than by parking on a gate it no longer owns.
		s.schedule()
		runtime.Goexit()
		return 0, nil // unreachable
	}

	// t's goroutine may still be parked in save() (Ready/Sleeping/Blocked)
	// or may not yet have reached its first save() (just spawned). discard
	// unblocks either case and routes it straight to cleanup.
	t.discard()
	return 0, nil
}

// Block marks tid as BLOCKED, removing it from scheduling consideration
// until a matching Resume. Blocking the calling thread invokes the
// scheduler and does not return until some other thread resumes it.
func Block(tid ThreadID) error {
	s, err := currentScheduler()
	if err != nil {
		return err
	}
	if tid == MainThread {
		return argErrorf(ErrInvalidArgument, "thread 0 may not be blocked")
	}

	s.mu.Lock()
	t, ok := s.threads[tid]
	if !ok {
		s.mu.Unlock()
		return argErrorf(ErrNoSuchThread, "no thread with id %d exists", tid)
	}
	if t.readyElem != nil {
		s.ready.remove(t.readyElem)
		t.readyElem = nil
	}
	delete(s.sleeping, tid)
	t.state = Blocked
	self := tid == s.current
	s.mu.Unlock()

	s.trace("block", tid, nil)

	if self {
		s.schedule()
		parkSelfOrExit(t)
	}
	return nil
}

// Resume marks a BLOCKED thread READY again, re-entering it at the back
// of the ready queue. It does not itself trigger a scheduling event.
func Resume(tid ThreadID) error {
	s, err := currentScheduler()
	if err != nil {
		return err
	}

	s.mu.Lock()
	t, ok := s.threads[tid]
	if !ok {
		s.mu.Unlock()
		return argErrorf(ErrNoSuchThread, "no thread with id %d exists", tid)
	}
	if t.state != Blocked {
		s.mu.Unlock()
		return nil
	}
	t.state = Ready
	t.readyElem = s.ready.PushBack(tid)
	s.mu.Unlock()

	s.trace("resume", tid, nil)
	return nil
}

// Sleep puts the calling thread to SLEEP for num_quantums full quantums.
// It stores num_quantums+1 so that the bookkeeping tick already spent
// giving up the CPU this call does not count as one of the requested
// quantums. Invokes the scheduler and does not return until the thread
// wakes naturally or is terminated.
func Sleep(numQuantums int) error {
	s, err := currentScheduler()
	if err != nil {
		return err
	}
	if numQuantums <= 0 {
		return argErrorf(ErrInvalidArgument, "num_quantums must be positive, got %d", numQuantums)
	}

	s.mu.Lock()
	tid := s.current
	if tid == MainThread {
		s.mu.Unlock()
		return argErrorf(ErrInvalidArgument, "thread 0 may not sleep")
	}
	t := s.threads[tid]
	t.state = Sleeping
	s.sleeping[tid] = numQuantums + 1
	s.mu.Unlock()

	s.trace("sleep", tid, map[string]int{"num_quantums": numQuantums})
	s.schedule()
	parkSelfOrExit(t)
	return nil
}

// GetTimeUntilWakeup reports how many quantums remain before tid wakes,
// or 0 if tid is not currently sleeping.
func GetTimeUntilWakeup(tid ThreadID) (int, error) {
	s, err := currentScheduler()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[tid]; !ok {
		return 0, argErrorf(ErrNoSuchThread, "no thread with id %d exists", tid)
	}
	return s.sleeping[tid], nil
}

// GetTid returns the id of the currently running thread.
func GetTid() (ThreadID, error) {
	s, err := currentScheduler()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

// GetTotalQuantums returns the number of quantums started since Init,
// counting the first dispatch as quantum 1.
func GetTotalQuantums() (int, error) {
	s, err := currentScheduler()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalQuantums, nil
}

// GetQuantums returns the number of quantums tid has been dispatched for,
// including a partial quantum currently in progress.
func GetQuantums(tid ThreadID) (int, error) {
	s, err := currentScheduler()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[tid]
	if !ok {
		return 0, argErrorf(ErrNoSuchThread, "no thread with id %d exists", tid)
	}
	return t.quantumCount, nil
}

// Yield is the cooperative safepoint thread bodies must call periodically
// (see package doc). It is a no-op unless the quantum clock has fired
// since this thread last checked, in which case it runs the scheduler and,
// if some other thread was chosen to run next, parks until it is
// dispatched again.
func Yield() error {
	s, err := currentScheduler()
	if err != nil {
		return err
	}
	if !s.preemptPending.Load() {
		return nil
	}

	s.mu.Lock()
	me := s.currentRecordLocked()
	s.mu.Unlock()
	if me == nil {
		return nil
	}

	s.schedule()

	s.mu.Lock()
	stillRunning := s.current == me.id
	s.mu.Unlock()
	if !stillRunning {
		parkSelfOrExit(me)
	}
	return nil
}
