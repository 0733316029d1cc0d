package trade

import "sync"

// accountLocks hands out one mutex per account so trades for the same
// account serialize in-process before they reach the database.
type accountLocks struct {
	locks    map[int]*sync.Mutex
	mapMutex sync.RWMutex // Protects the map itself
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int]*sync.Mutex)}
}

// Lock locks the mutex for a specific account, creating it on first use.
func (a *accountLocks) Lock(accountID int) {
	a.mapMutex.Lock()
	if a.locks[accountID] == nil {
		a.locks[accountID] = &sync.Mutex{}
	}
	mu := a.locks[accountID]
	a.mapMutex.Unlock()

	mu.Lock()
}

// Unlock releases the mutex for a specific account.
func (a *accountLocks) Unlock(accountID int) {
	a.mapMutex.RLock()
	mu := a.locks[accountID]
	a.mapMutex.RUnlock()

	if mu != nil {
		mu.Unlock()
	}
}
