package ledger

import "sync"

// keyLock serializes writers per arbitrary string key. Every ledger write
// is a read-modify-write over the store; locking the (ticker, class) key
// for its duration removes the lost-update window without serializing
// unrelated positions against each other.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key and returns the unlock function.
func (k *keyLock) acquire(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
