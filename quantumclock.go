package uthread

import "time"

// quantumClock is a virtual-time interval timer that periodically raises
// the preemption signal, re-armed (never left to free-run) on every
// scheduling event. Two implementations are provided: quantumclock_linux.go
// uses a real POSIX interval timer and signal mask (grounded in
// go-eventloop's reliance on golang.org/x/sys for OS bindings), and
// quantumclock_other.go is a portable time.Timer-based fallback used on
// every non-Linux platform.
type quantumClock interface {
	// Fired delivers one value each time the quantum expires.
	Fired() <-chan struct{}

	// Arm (re)starts the timer so that the next delivery on Fired lands
	// exactly one quantum of length d from now.
	Arm(d time.Duration) error

	// Mask blocks delivery of the quantum signal.
	Mask() error

	// Unmask re-enables delivery of the quantum signal.
	Unmask() error

	// Close releases OS resources associated with the clock.
	Close() error
}

// newQuantumClock constructs the platform-appropriate quantumClock.
func newQuantumClock() (quantumClock, error) {
	return newPlatformQuantumClock()
}
