package service

import "sync"

// VersionLocks serialises work on one schedule version while letting
// different versions proceed in parallel. Entries are dropped once unused.
// One instance is shared by every service that writes blocks or groups.
type VersionLocks struct {
	mu    sync.Mutex
	locks map[int64]*versionLock
}

type versionLock struct {
	mu   sync.Mutex
	refs int
}

// NewVersionLocks returns an empty lock set.
func NewVersionLocks() *VersionLocks {
	return &VersionLocks{locks: make(map[int64]*versionLock)}
}

// Lock blocks until the version is free and returns the matching unlock func.
func (l *VersionLocks) Lock(scheduleID int64) func() {
	l.mu.Lock()
	lock, ok := l.locks[scheduleID]
	if !ok {
		lock = &versionLock{}
		l.locks[scheduleID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, scheduleID)
		}
		l.mu.Unlock()
	}
}

func (l *VersionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
