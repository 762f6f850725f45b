package service

import "sync"

// BlockClock is the host-supplied logical clock: a monotonically increasing
// counter advanced by exactly one before each committed mutating operation.
// It implements core.Clock; the core reads it and never sets it.
type BlockClock struct {
	mu     sync.Mutex
	height uint64
}

// NewBlockClock creates a clock starting at the given height (restored from
// the persisted state at startup)
func NewBlockClock(height uint64) *BlockClock {
	return &BlockClock{height: height}
}

// Height returns the current logical block height
func (c *BlockClock) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Advance increments the height by one and returns the new value
func (c *BlockClock) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	return c.height
}
