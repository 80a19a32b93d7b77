package nonce

import (
	"strconv"
	"sync"
	"time"
)

// Nonce is a mutex guarded monotonic counter. The Bitfinex v1 API rejects
// any authenticated request whose nonce is not strictly greater than the
// last accepted one, so issuance must be serialised.
type Nonce struct {
	n int64
	m sync.Mutex
}

// GetInc seeds the counter from wall-clock milliseconds on first use, then
// strictly increments for every subsequent value. Sequential calls never
// return the same value twice even within one millisecond.
func (n *Nonce) GetInc() Value {
	n.m.Lock()
	defer n.m.Unlock()
	if n.n == 0 {
		n.n = time.Now().UnixMilli()
		return Value(n.n)
	}
	n.n++
	return Value(n.n)
}

// Get returns the current value without advancing it
func (n *Nonce) Get() Value {
	n.m.Lock()
	defer n.m.Unlock()
	return Value(n.n)
}

// Set overrides the counter, primarily for tests and for callers resuming a
// persisted nonce sequence
func (n *Nonce) Set(val int64) {
	n.m.Lock()
	n.n = val
	n.m.Unlock()
}

// Value is a single issued nonce
type Value int64

// String formats the value the way the wire payload carries it
func (v Value) String() string {
	return strconv.FormatInt(int64(v), 10)
}
