package uthread

// This file is the narrow, trusted boundary context switching deserves:
// the only operations are a save that parks the caller and reports whether
// it was discarded rather than restored, a restore that hands the target
// its resume token, and a discard. No raw register buffers are exposed. Go gives every goroutine its
// own runtime-managed stack, so there are no raw registers to save; the
// boundary instead hides a channel handoff, the portable, explicit
// strategy preferred over platform-specific pointer obfuscation.

// save blocks the calling goroutine on its own resume gate. This plays the
// role of recording the current CPU state into a context slot: the Go
// runtime already preserved everything (stack, registers, PC) the instant
// the goroutine entered the blocking receive, so resuming later continues
// exactly here, on the same stack. There is only one return path, but two
// ways out of it: a normal restore (terminated is false) or discard, used
// when some other thread terminates this one while it is parked
// (terminated is true, and the caller must unwind via runtime.Goexit
// rather than resume its body).
func (t *threadRecord) save() (terminated bool) {
	_, ok := <-t.resumeGate
	return !ok
}

// restore is the scheduler's half of the handoff: send on the target's
// resume gate to let it proceed from wherever it called save. The
// goroutine performing the restore (the scheduler) immediately goes on to
// do something else (usually block on its own gate); it never gets
// control back from the target synchronously. The send rendezvous with
// the target's save, so restore briefly blocks if the target goroutine
// hasn't reached save yet (only possible for a thread dispatched for the
// very first time, right after spawn).
func (t *threadRecord) restore() {
	t.resumeGate <- struct{}{}
}

// discard wakes a parked thread without resuming it, for Terminate acting
// on a thread other than the caller. Closing resumeGate makes every
// pending and future receive on it return immediately with ok == false,
// which save reports as terminated.
func (t *threadRecord) discard() {
	close(t.resumeGate)
}

// newMainThreadRecord builds thread 0's record. Its initial context is
// never synthesized: the caller of Init is captured as thread 0's context
// by the first schedule() pass, which simply calls save() from inside the
// goroutine that called Init, the same code path used for every other
// thread.
func newMainThreadRecord() *threadRecord {
	return &threadRecord{
		id:         MainThread,
		state:      Running,
		resumeGate: make(chan struct{}),
		done:       make(chan struct{}),
		started:    true,
	}
}

// newSpawnedThreadRecord constructs the initial context for a spawned
// thread: a clean stack and a program counter pointed at the thread's
// entry function, so the very first restore begins execution at entry on
// that stack. In Go terms, that is: start a goroutine whose first action
// is to wait to be resumed, so it performs no user-visible work before the
// scheduler actually dispatches it.
func newSpawnedThreadRecord(id ThreadID, entry func(), onEntryReturn func(ThreadID)) *threadRecord {
	t := &threadRecord{
		id:         id,
		state:      Ready,
		resumeGate: make(chan struct{}),
		done:       make(chan struct{}),
		body:       entry,
	}
	go func() {
		defer close(t.done)
		// Park until the scheduler's first restore of this thread, unless
		// it is terminated before ever running a single instruction.
		if terminated := t.save(); terminated {
			return
		}
		t.started = true
		entry()
		// An entry function that returns instead of calling Terminate on
		// itself is treated as a well-defined implicit self-terminate: log
		// it and terminate the thread on its own behalf.
		onEntryReturn(id)
	}()
	return t
}
