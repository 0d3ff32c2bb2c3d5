// Package uthread implements a cooperative-preemptive user-level threading
// library: lightweight "uthreads" scheduled round-robin inside a single
// Go process, with a fixed virtual-time quantum, blocking, sleeping and
// resumption primitives.
//
// Multiplexing happens in user space in the sense that matters for this
// package's contract: the package itself, not the Go runtime's own
// goroutine scheduler, owns the ready queue, the sleep table and the FIFO
// ordering between threads. Each uthread is backed by a real goroutine
// parked on a private resume gate except while it is the single RUNNING
// thread; see context.go for how that stands in for a saved machine
// context.
//
// A quantum timer, backed by a real OS interval timer where available
// (quantumclock_linux.go), drives preemption. Because Go gives no portable
// way to suspend an arbitrary goroutine from the outside, CPU-bound thread
// bodies must call Yield periodically to actually give up the CPU at a
// quantum boundary. See Yield's doc comment.
package uthread
