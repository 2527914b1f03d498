package keylock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameKey(t *testing.T) {
	kl := New(time.Minute)
	defer kl.Stop()

	const goroutines = 20
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("price:all")
			defer unlock()
			counter++
		}()
	}

	wg.Wait()
	assert.Equal(t, goroutines, counter)
	assert.Equal(t, 1, kl.Size())
}

func TestConcurrentHoldersNeverOverlap(t *testing.T) {
	kl := New(time.Minute)
	defer kl.Stop()

	// Pre-create the entry so every goroutine below takes the existing-key path
	unlock := kl.Lock("ohlc:bitcoin:7")
	unlock()

	var inside, overlaps int64
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("ohlc:bitcoin:7")
			defer unlock()

			if atomic.AddInt64(&inside, 1) > 1 {
				atomic.AddInt64(&overlaps, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&inside, -1)
		}()
	}

	wg.Wait()
	assert.Zero(t, atomic.LoadInt64(&overlaps),
		"two holders of one key must never run concurrently")
	assert.Equal(t, 1, kl.Size())
}

func TestDistinctKeysDoNotBlockEachOther(t *testing.T) {
	kl := New(time.Minute)
	defer kl.Stop()

	unlockA := kl.Lock("ohlc:bitcoin:7")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		unlockB := kl.Lock("ohlc:ethereum:7")
		unlockB()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("holding one key must not block acquisition of another")
	}

	assert.Equal(t, 2, kl.Size())
}

// refs reads the reference count of a key's entry for test assertions.
func (kl *KeyLock) refs(key string) int {
	kl.mapMutex.Lock()
	defer kl.mapMutex.Unlock()
	if entry, ok := kl.locks[key]; ok {
		return entry.refs
	}
	return 0
}

// age backdates a key's last access so cleanup considers it idle.
func (kl *KeyLock) age(key string, by time.Duration) {
	kl.mapMutex.Lock()
	defer kl.mapMutex.Unlock()
	if entry, ok := kl.locks[key]; ok {
		entry.lastAccess = entry.lastAccess.Add(-by)
	}
}

func TestCleanupRemovesIdleEntries(t *testing.T) {
	kl := New(time.Minute)
	defer kl.Stop()

	unlock := kl.Lock("ohlc:cardano:30")
	unlock()
	require.Equal(t, 1, kl.Size())

	kl.age("ohlc:cardano:30", time.Hour)
	kl.removeIdle()

	assert.Equal(t, 0, kl.Size())
}

func TestCleanupSkipsHeldLocks(t *testing.T) {
	kl := New(time.Minute)
	defer kl.Stop()

	unlock := kl.Lock("ohlc:ripple:90")
	defer unlock()

	kl.age("ohlc:ripple:90", time.Hour)
	kl.removeIdle()

	assert.Equal(t, 1, kl.Size(), "a held entry must never be reclaimed")
}

func TestCleanupSkipsWaitedOnEntries(t *testing.T) {
	kl := New(time.Minute)
	defer kl.Stop()

	unlockA := kl.Lock("book:solana")

	// Second caller blocks waiting on the same entry
	entered := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(entered)
		unlockB := kl.Lock("book:solana")
		unlockB()
		close(done)
	}()

	<-entered
	for i := 0; kl.refs("book:solana") < 2 && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 2, kl.refs("book:solana"))

	// Even stale, an entry with waiters survives cleanup, so the waiter keeps
	// contending on the holder's lock rather than a freshly minted one.
	kl.age("book:solana", time.Hour)
	kl.removeIdle()
	assert.Equal(t, 1, kl.Size())

	unlockA()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock after release")
	}

	// With nobody holding it, the stale entry is reclaimed on the next sweep
	kl.age("book:solana", time.Hour)
	kl.removeIdle()
	assert.Equal(t, 0, kl.Size())
}

func TestStopTwice(t *testing.T) {
	kl := New(time.Minute)
	kl.Stop()
	kl.Stop()
}
