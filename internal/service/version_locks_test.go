package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVersionLocksSerialiseSameVersion(t *testing.T) {
	locks := NewVersionLocks()
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				current := atomic.LoadInt32(&maxActive)
				if n <= current || atomic.CompareAndSwapInt32(&maxActive, current, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, locks.size())
}

func TestVersionLocksIndependentVersions(t *testing.T) {
	locks := NewVersionLocks()
	unlockA := locks.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(2)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different version blocked")
	}
	unlockA()
	assert.Equal(t, 0, locks.size())
}
