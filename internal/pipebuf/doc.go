// Package pipebuf implements a bounded, growable byte buffer for one
// connection's read side: the network layer appends bytes as they arrive,
// the codec consumes a prefix of them once a full command is recognized,
// and whatever is left over (a partial command) stays put until more bytes
// arrive.
//
// A PipeBuf is not safe for concurrent use; it is owned by exactly one
// connection goroutine, matching the one-goroutine-per-connection model of
// package conn.
package pipebuf
