package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/jpagh/docassemblecli3/internal/log"
)

// InstallRunner performs one install operation. The restart flag is the
// batch's aggregate classification, already resolved against the
// configured policy by the runner.
type InstallRunner func(restartRequired bool) error

// Invoker serializes install operations: at most one install runs at a
// time, and signals arriving while one is in flight collapse into a
// single queued slot whose restart flag is the OR of every merged
// signal. A finished job (success or failure alike) immediately drains
// the queued slot; failures are reported and never retried on their own.
type Invoker struct {
	runner InstallRunner

	mu            sync.Mutex
	queued        bool
	queuedRestart bool

	kick chan struct{}
	wg   sync.WaitGroup
}

// NewInvoker creates an invoker driving the given runner
func NewInvoker(runner InstallRunner) *Invoker {
	return &Invoker{
		runner: runner,
		kick:   make(chan struct{}, 1),
	}
}

// Notify merges an install-needed signal into the queued slot and wakes
// the loop. Never blocks, so the batcher's flush path stays fast.
func (iv *Invoker) Notify(restartRequired bool) {
	iv.mu.Lock()
	iv.queued = true
	iv.queuedRestart = iv.queuedRestart || restartRequired
	iv.mu.Unlock()

	select {
	case iv.kick <- struct{}{}:
	default:
	}
}

// Start launches the serialized install loop
func (iv *Invoker) Start(ctx context.Context) {
	iv.wg.Add(1)
	go func() {
		defer iv.wg.Done()
		iv.loop(ctx)
	}()
}

// Wait blocks until the loop has exited
func (iv *Invoker) Wait() {
	iv.wg.Wait()
}

func (iv *Invoker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			iv.mu.Lock()
			abandoned := iv.queued
			iv.queued = false
			iv.mu.Unlock()
			if abandoned {
				log.Warn("Shutting down with a pending install; it will not run")
			}
			return

		case <-iv.kick:
			iv.drain(ctx)
		}
	}
}

// drain runs merged jobs until the queued slot is empty. Signals that
// arrive while a job runs land back in the slot and are picked up here
// before the loop sleeps again.
func (iv *Invoker) drain(ctx context.Context) {
	for {
		// Leave the slot alone once shutdown begins; the loop's
		// cancellation branch is the one place that reports it
		if ctx.Err() != nil {
			return
		}

		iv.mu.Lock()
		if !iv.queued {
			iv.mu.Unlock()
			return
		}
		restart := iv.queuedRestart
		iv.queued = false
		iv.queuedRestart = false
		iv.mu.Unlock()

		started := time.Now()
		if err := iv.runner(restart); err != nil {
			// Install failures do not stop the watch; the next file
			// change is the only retry trigger
			log.Error("Install failed after %s: %v", time.Since(started).Round(time.Millisecond), err)
		}
	}
}
