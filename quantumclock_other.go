//go:build !linux

package uthread

import (
	"sync"
	"time"
)

// portableQuantumClock is the fallback quantumClock for every non-Linux
// platform (see quantumclock_linux.go for the ITIMER_VIRTUAL one). It
// re-arms a single time.Timer on every call to Arm, and approximates
// "masking" with a plain mutex: delivery on Fired is simply withheld while
// masked and replayed on Unmask, since there is no real asynchronous
// signal to block at the OS level on these platforms.
type portableQuantumClock struct {
	mu      sync.Mutex
	timer   *time.Timer
	firedCh chan struct{}
	masked  bool
	pending bool
	closed  bool
}

func newPlatformQuantumClock() (quantumClock, error) {
	return &portableQuantumClock{
		firedCh: make(chan struct{}, 1),
	}, nil
}

func (c *portableQuantumClock) Fired() <-chan struct{} { return c.firedCh }

func (c *portableQuantumClock) Arm(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.masked {
			c.pending = true
			return
		}
		select {
		case c.firedCh <- struct{}{}:
		default:
		}
	})
	return nil
}

func (c *portableQuantumClock) Mask() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masked = true
	return nil
}

func (c *portableQuantumClock) Unmask() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masked = false
	if c.pending {
		c.pending = false
		select {
		case c.firedCh <- struct{}{}:
		default:
		}
	}
	return nil
}

func (c *portableQuantumClock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	return nil
}
