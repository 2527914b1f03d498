package keylock

import (
	"sync"
	"time"
)

// KeyLock serializes work per cache key so that concurrent misses for the
// same key share a single upstream fetch instead of racing. Entries are
// reference counted: an entry is never reclaimed while a caller holds or
// waits on its lock, so every waiter for a key contends on the same lock.
type KeyLock struct {
	locks      map[string]*lockEntry
	mapMutex   sync.Mutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// lockEntry pairs the per-key mutex with bookkeeping. refs and lastAccess
// are guarded by the KeyLock's mapMutex, never touched while only holding mu.
type lockEntry struct {
	mu         sync.Mutex
	refs       int
	lastAccess time.Time
}

// New creates a KeyLock whose idle entries are reclaimed after cleanupTTL.
func New(cleanupTTL time.Duration) *KeyLock {
	kl := &KeyLock{
		locks:      make(map[string]*lockEntry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	go kl.cleanup()

	return kl
}

// Lock acquires the lock for key, creating the entry if it doesn't exist, and
// returns the matching unlock function. The unlock function must be called
// exactly once. The entry's reference count is raised before blocking, so
// cleanup can never reclaim an entry a caller is waiting on.
func (kl *KeyLock) Lock(key string) func() {
	kl.mapMutex.Lock()
	entry, exists := kl.locks[key]
	if !exists {
		entry = &lockEntry{}
		kl.locks[key] = entry
	}
	entry.refs++
	entry.lastAccess = time.Now()
	kl.mapMutex.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		kl.mapMutex.Lock()
		entry.refs--
		entry.lastAccess = time.Now()
		kl.mapMutex.Unlock()
	}
}

// Size returns the number of entries currently stored.
func (kl *KeyLock) Size() int {
	kl.mapMutex.Lock()
	defer kl.mapMutex.Unlock()
	return len(kl.locks)
}

// cleanup runs periodically to drop idle entries and bound memory growth
func (kl *KeyLock) cleanup() {
	ticker := time.NewTicker(kl.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			kl.removeIdle()
		case <-kl.stopCh:
			return
		}
	}
}

// removeIdle removes entries that nobody holds or waits on and that haven't
// been used recently.
func (kl *KeyLock) removeIdle() {
	kl.mapMutex.Lock()
	defer kl.mapMutex.Unlock()

	now := time.Now()
	for key, entry := range kl.locks {
		if entry.refs == 0 && now.Sub(entry.lastAccess) > kl.cleanupTTL {
			delete(kl.locks, key)
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (kl *KeyLock) Stop() {
	kl.stopOnce.Do(func() {
		close(kl.stopCh)
	})
}
