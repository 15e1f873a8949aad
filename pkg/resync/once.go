// Package resync provides a sync.Once that can be reset.
//
// Lazy singletons (clock, logger, config) are initialized once per process
// but tests need to start again from a clean state.
package resync

import (
	"sync"
	"sync/atomic"
)

// Once is like sync.Once but supports Reset.
type Once struct {
	m    sync.Mutex
	done uint32
}

// Do calls f if and only if Do has not been called since creation or since the last Reset.
func (o *Once) Do(f func()) {
	if atomic.LoadUint32(&o.done) == 1 {
		return
	}
	o.m.Lock()
	defer o.m.Unlock()
	if o.done == 0 {
		defer atomic.StoreUint32(&o.done, 1)
		f()
	}
}

// Reset makes the next call to Do run its function again.
func (o *Once) Reset() {
	o.m.Lock()
	defer o.m.Unlock()
	atomic.StoreUint32(&o.done, 0)
}
