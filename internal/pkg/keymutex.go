package pkg

import "sync"

// KeyedMutex hands out one exclusive lock per key. Entries are dropped once no goroutine holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*refLock),
	}
}

// Lock blocks until the key is free and returns the matching unlock func.
func (that *KeyedMutex) Lock(key string) func() {
	that.mu.Lock()
	lock, ok := that.locks[key]
	if !ok {
		lock = &refLock{}
		that.locks[key] = lock
	}
	lock.refs++
	that.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once

	return func() {
		once.Do(func() {
			lock.mu.Unlock()

			that.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(that.locks, key)
			}
			that.mu.Unlock()
		})
	}
}

// Len reports how many keys are currently tracked.
func (that *KeyedMutex) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.locks)
}
