// Package keyedlock provides per-key mutual exclusion for asynchronous work.
//
// Work submitted under the same key runs strictly one at a time in arrival
// order; work under different keys runs fully in parallel. Per-key state is
// created on first use and removed once the last waiter finishes, so memory
// tracks currently contended keys only.
package keyedlock

import (
	"context"
	"sync"
)

// Keyed serializes work per key. The zero value is not usable; call New.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// waiters counts callers that have joined the queue and not yet
	// released, including the one currently running.
	waiters int
	// tail is closed when the most recently enqueued caller releases.
	// The next caller to arrive waits on it.
	tail chan struct{}
}

// New creates an empty Keyed lock.
func New() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// RunExclusive runs fn while holding the lock for key.
//
// Callers for the same key are granted the lock in the order they called
// RunExclusive. A caller whose context is cancelled while waiting is
// dequeued without running fn and returns ctx.Err(); later waiters for the
// key are unaffected. fn's error (or nil) is returned as-is and does not
// affect later waiters either.
func (k *Keyed) RunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.waiters++
	predecessor := e.tail // nil on first acquisition: run immediately
	release := make(chan struct{})
	e.tail = release
	k.mu.Unlock()

	if predecessor != nil {
		select {
		case <-predecessor:
		case <-ctx.Done():
			// Pass the baton once the predecessor finishes so the
			// queue behind this caller keeps moving.
			go func() {
				<-predecessor
				k.release(key, release)
			}()
			return ctx.Err()
		}
	}

	defer k.release(key, release)
	return fn(ctx)
}

// Len reports the number of keys with live entries. Intended for tests and
// introspection.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed) release(key string, release chan struct{}) {
	close(release)
	k.mu.Lock()
	e := k.entries[key]
	e.waiters--
	if e.waiters == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
