//go:build linux

package uthread

import (
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// linuxQuantumClock drives preemption from a real ITIMER_VIRTUAL: it only
// ticks while this process is actually scheduled on a CPU, unlike
// wall-clock ITIMER_REAL. Delivery is SIGVTALRM, caught with os/signal and
// masked/unmasked with golang.org/x/sys/unix.PthreadSigmask on whichever OS
// thread the calling goroutine is running on. The clock is not pinned to
// one OS thread: runtime.LockOSThread is held only for the duration of the
// Setitimer call in Arm.
type linuxQuantumClock struct {
	mu      sync.Mutex
	sigCh   chan os.Signal
	firedCh chan struct{}
	closed  bool
	done    chan struct{}
}

func newPlatformQuantumClock() (quantumClock, error) {
	c := &linuxQuantumClock{
		sigCh:   make(chan os.Signal, 1),
		firedCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(c.sigCh, syscall.SIGVTALRM)
	go c.pump()
	return c, nil
}

// pump forwards each delivered SIGVTALRM onto firedCh, coalescing bursts
// the way a re-armed one-shot timer naturally would: at most one pending
// tick is ever buffered.
func (c *linuxQuantumClock) pump() {
	for {
		select {
		case <-c.sigCh:
			select {
			case c.firedCh <- struct{}{}:
			default:
			}
		case <-c.done:
			return
		}
	}
}

func (c *linuxQuantumClock) Fired() <-chan struct{} { return c.firedCh }

func (c *linuxQuantumClock) Arm(d time.Duration) error {
	it := unix.Itimerval{
		Value:    unix.NsecToTimeval(d.Nanoseconds()),
		Interval: unix.Timeval{}, // one-shot: re-armed explicitly on every schedule() pass
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := unix.Setitimer(unix.ITIMER_VIRTUAL, &it, nil); err != nil {
		return argErrorf(ErrSystemFailure, "setitimer: %v", err)
	}
	return nil
}

func (c *linuxQuantumClock) Mask() error {
	set := sigsetOf(syscall.SIGVTALRM)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil); err != nil {
		return argErrorf(ErrSystemFailure, "sigprocmask: %v", err)
	}
	return nil
}

func (c *linuxQuantumClock) Unmask() error {
	set := sigsetOf(syscall.SIGVTALRM)
	if err := unix.PthreadSigmask(unix.SIG_UNBLOCK, &set, nil); err != nil {
		return argErrorf(ErrSystemFailure, "sigprocmask: %v", err)
	}
	return nil
}

func (c *linuxQuantumClock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	signal.Stop(c.sigCh)
	close(c.done)
	var it unix.Itimerval
	_ = unix.Setitimer(unix.ITIMER_VIRTUAL, &it, nil)
	return nil
}

// sigsetOf builds a Sigset_t containing exactly sig, using the linux/amd64
// and linux/arm64 representation (a bitmask of 64-bit words, signal n in
// bit (n-1) of word (n-1)/64).
func sigsetOf(sig syscall.Signal) unix.Sigset_t {
	var set unix.Sigset_t
	bit := uint(sig) - 1
	set.Val[bit/64] |= 1 << (bit % 64)
	return set
}
