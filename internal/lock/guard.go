package lock

import (
	"context"
	"sync"
	"time"
)

// Guard combines an in-process mutex with an optional cross-process file lock.
type Guard struct {
	mu   sync.Mutex
	file *FileLock
}

// NewGuard returns a guard. An empty path guards this process only.
func NewGuard(path string) *Guard {
	g := &Guard{}
	if path != "" {
		g.file = NewFileLock(path)
	}
	return g
}

// Path returns the lock file path, or "" for an in-process guard.
func (g *Guard) Path() string {
	if g.file == nil {
		return ""
	}
	return g.file.Path()
}

// TryAcquire takes the guard without waiting. On success the returned release
// function must be called exactly once.
func (g *Guard) TryAcquire() (release func() error, ok bool, err error) {
	if !g.mu.TryLock() {
		return nil, false, nil
	}
	if g.file == nil {
		return g.releaser(), true, nil
	}

	ok, err = g.file.TryLock()
	if err != nil || !ok {
		g.mu.Unlock()
		return nil, false, err
	}
	return g.releaser(), true, nil
}

// Acquire waits for the guard until timeout or ctx is done.
func (g *Guard) Acquire(ctx context.Context, timeout time.Duration) (release func() error, err error) {
	deadline := time.Now().Add(timeout)
	poll := minPoll
	for !g.mu.TryLock() {
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(poll):
			poll = min(poll*2, maxPoll)
		}
	}

	if g.file != nil {
		if err := g.file.Lock(ctx, time.Until(deadline)); err != nil {
			g.mu.Unlock()
			return nil, err
		}
	}
	return g.releaser(), nil
}

func (g *Guard) releaser() func() error {
	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			if g.file != nil {
				err = g.file.Unlock()
			}
			g.mu.Unlock()
		})
		return err
	}
}
