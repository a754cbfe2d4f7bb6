package stats

import "sync/atomic"

// Counters holds the server-wide atomic counters. The zero value is ready
// to use.
type Counters struct {
	bytesRead      uint64
	pixelsSet      uint64
	clientsTotal   uint64
	clientsCurrent int64 // signed: decremented on disconnect, never clamped below 0 by us
}

// Snapshot is a non-atomic, point-in-time-ish copy of Counters for
// reporting. See the package doc for the cross-field consistency caveat.
type Snapshot struct {
	BytesRead      uint64
	PixelsSet      uint64
	ClientsTotal   uint64
	ClientsCurrent int64
}

// AddBytesRead records n additional bytes read from client sockets.
func (c *Counters) AddBytesRead(n uint64) {
	atomic.AddUint64(&c.bytesRead, n)
}

// AddPixelsSet records n additional successful pixel writes.
func (c *Counters) AddPixelsSet(n uint64) {
	atomic.AddUint64(&c.pixelsSet, n)
}

// ClientConnected records a new connection: bumps both the lifetime total
// and the current count.
func (c *Counters) ClientConnected() {
	atomic.AddUint64(&c.clientsTotal, 1)
	atomic.AddInt64(&c.clientsCurrent, 1)
}

// ClientDisconnected decrements the current connection count. Call exactly
// once per connection that previously called ClientConnected.
func (c *Counters) ClientDisconnected() {
	atomic.AddInt64(&c.clientsCurrent, -1)
}

// Snapshot reads all counters and returns a copy. Non-blocking, safe to
// call concurrently with any number of writers.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		BytesRead:      atomic.LoadUint64(&c.bytesRead),
		PixelsSet:      atomic.LoadUint64(&c.pixelsSet),
		ClientsTotal:   atomic.LoadUint64(&c.clientsTotal),
		ClientsCurrent: atomic.LoadInt64(&c.clientsCurrent),
	}
}
