package services

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// PlayerLocks serializes all database mutations touching one player while
// leaving different players free to proceed concurrently. Both the poll
// cycles and the HTTP surface funnel through the same instance, keyed by
// wallet address.
type PlayerLocks struct {
	locks *xsync.Map[string, *sync.Mutex]
}

func NewPlayerLocks() *PlayerLocks {
	return &PlayerLocks{locks: xsync.NewMap[string, *sync.Mutex]()}
}

// Lock acquires the wallet's mutex and returns the unlock func.
func (l *PlayerLocks) Lock(walletAddress string) func() {
	mu, _ := l.locks.LoadOrStore(walletAddress, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}
