// Package stats holds the server's running counters: bytes read off the
// wire, pixels set on the canvas, and client connection counts.
//
// Every counter is a plain sync/atomic word incremented independently by
// many connection goroutines. Snapshot reads each counter with its own
// atomic load, so a Snapshot is not a consistent point-in-time view across
// fields — two fields read a few nanoseconds apart may reflect slightly
// different moments. That's acceptable for monitoring; nothing here feeds
// a correctness decision.
package stats
