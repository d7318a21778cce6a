package usecase

import (
	"strings"
	"sync"
)

// matchLocks hands out one mutex per match ID.
type matchLocks struct {
	mu    sync.Mutex
	locks map[string]*matchLock
}

type matchLock struct {
	sync.Mutex
	holders int
}

func newMatchLocks() *matchLocks {
	return &matchLocks{locks: make(map[string]*matchLock)}
}

// lock blocks until the match is free and returns the release func.
// id is copied; callers may pass strings backed by reused request buffers.
func (that *matchLocks) lock(id string) func() {
	id = strings.Clone(id)

	that.mu.Lock()
	entry, ok := that.locks[id]
	if !ok {
		entry = &matchLock{}
		that.locks[id] = entry
	}
	entry.holders++
	that.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		that.mu.Lock()
		entry.holders--
		if entry.holders == 0 {
			delete(that.locks, id)
		}
		that.mu.Unlock()
	}
}
