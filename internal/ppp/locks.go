package ppp

import (
	"context"
	"sync"
)

// deviceLocks hands out one lock per device id. Entries are dropped once
// no caller holds or waits on them.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*deviceLock
}

// deviceLock is a one-slot semaphore so waiters can give up on ctx.
type deviceLock struct {
	sem  chan struct{}
	refs int
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[string]*deviceLock)}
}

// lock waits until deviceID is free and returns the matching unlock. It
// returns ctx.Err() if ctx ends first.
func (l *deviceLocks) lock(ctx context.Context, deviceID string) (unlock func(), err error) {
	l.mu.Lock()
	dl, ok := l.locks[deviceID]
	if !ok {
		dl = &deviceLock{sem: make(chan struct{}, 1)}
		l.locks[deviceID] = dl
	}
	dl.refs++
	l.mu.Unlock()

	select {
	case dl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(deviceID, dl)
		return nil, ctx.Err()
	}
	return func() {
		<-dl.sem
		l.release(deviceID, dl)
	}, nil
}

func (l *deviceLocks) release(deviceID string, dl *deviceLock) {
	l.mu.Lock()
	dl.refs--
	if dl.refs == 0 {
		delete(l.locks, deviceID)
	}
	l.mu.Unlock()
}

func (l *deviceLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
