// Package lock provides per-key mutual exclusion with bounded waiting.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout is returned when a key could not be acquired within the wait limit.
var ErrTimeout = errors.New("lock wait timed out")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Keyed hands out exclusive locks by string key. Entries exist only while
// somebody holds or waits for the key.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

// New creates a Keyed locker. A non-positive timeout means waits are bounded
// only by the caller's context.
func New(timeout time.Duration) *Keyed {
	return &Keyed{
		entries: make(map[string]*entry),
		timeout: timeout,
	}
}

func TeamKey(id int) string {
	return fmt.Sprintf("team:%d", id)
}

func UserKey(id string) string {
	return "user:" + id
}

func AssetKey(hash string) string {
	return "asset:" + hash
}

// Lock acquires every key in ascending order, so two callers asking for the
// same keys in any order cannot deadlock. Team keys sort before user keys.
// The returned function releases all of them and is safe to call twice.
func (k *Keyed) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)

	waitCtx := ctx
	if k.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	acquired := make([]string, 0, len(keys))
	for _, key := range keys {
		e := k.ref(key)
		if err := e.sem.Acquire(waitCtx, 1); err != nil {
			k.unref(key)
			k.release(acquired)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(acquired) })
	}, nil
}

// Len reports how many keys are currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed) ref(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

func (k *Keyed) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		k.mu.Lock()
		e := k.entries[keys[i]]
		k.mu.Unlock()
		e.sem.Release(1)
		k.unref(keys[i])
	}
}

func normalize(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, key := range out {
		if i > 0 && key == out[n-1] {
			continue
		}
		out[n] = key
		n++
	}
	return out[:n]
}
