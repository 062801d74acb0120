package locking

import (
	"sync"
)

// OperationType defines whether an operation is read or write.
// Read operations share the lock; write operations hold it exclusively.
type OperationType int

const (
	// ReadOperation indicates an operation that only reads state.
	// Multiple read operations can proceed concurrently.
	ReadOperation OperationType = iota

	// WriteOperation indicates an operation that mutates state.
	// No other reads or writes proceed while a write lock is held.
	WriteOperation
)

// String returns the string representation of the OperationType
func (o OperationType) String() string {
	if o == WriteOperation {
		return "write"
	}
	return "read"
}

// LockManager centralizes read/write locking for a record set or a file store.
// Every mutation funnels through Execute(WriteOperation, ...), so a single
// owner serializes all writes to the canonical collection.
type LockManager struct {
	mu *sync.RWMutex
}

// NewLockManager creates a new lock manager instance.
func NewLockManager() *LockManager {
	return &LockManager{
		mu: &sync.RWMutex{},
	}
}

// Execute runs fn while holding the lock matching opType.
// The lock is released via defer, so a panicking fn does not leave it held.
//
// Example:
//
//	err := lm.Execute(locking.WriteOperation, func() error {
//	    rec.Fields["name"] = "customer_id"
//	    return nil
//	})
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// Read runs fn under the read lock and returns its typed result.
func Read[T any](lm *LockManager, fn func() (T, error)) (T, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return fn()
}

// Write runs fn under the write lock and returns its typed result.
func Write[T any](lm *LockManager, fn func() (T, error)) (T, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return fn()
}
