// Package scheduler_test benchmarks the uthread scheduler's core
// operations, the way the teacher's benchmarks/simple package benchmarks
// ZenQ's Read/Write path.
package scheduler_test

import (
	"context"
	"testing"

	"github.com/cormant/uthread"
)

func BenchmarkSpawnTerminate(b *testing.B) {
	if _, err := uthread.Init(200); err != nil {
		b.Fatal(err)
	}
	defer func() { _ = uthread.Shutdown(context.Background()) }()

	done := make(chan struct{}, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// entry returns without calling Terminate itself: the scheduler's
		// own implicit self-terminate reaps it.
		if _, err := uthread.Spawn(func() {
			done <- struct{}{}
		}); err != nil {
			b.Fatal(err)
		}
		// Yield only hands off once the quantum clock has fired, so keep
		// yielding until the spawned thread has run.
		for waiting := true; waiting; {
			select {
			case <-done:
				waiting = false
			default:
				_ = uthread.Yield()
			}
		}
	}
}

func BenchmarkYieldRoundRobin(b *testing.B) {
	if _, err := uthread.Init(200); err != nil {
		b.Fatal(err)
	}
	defer func() { _ = uthread.Shutdown(context.Background()) }()

	const workers = 4
	stop := make(chan struct{})
	for i := 0; i < workers; i++ {
		if _, err := uthread.Spawn(func() {
			for {
				select {
				case <-stop:
					return
				default:
					_ = uthread.Yield()
				}
			}
		}); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = uthread.Yield()
	}
	b.StopTimer()
	close(stop)
}
