// Package cmdexec interprets one decoded codec.Command against a pixmap
// and a stats.Counters, appending any reply bytes to the connection's
// output buffer.
//
// Execution never blocks and never allocates beyond formatting the reply:
// a command-level failure (bad syntax, out-of-range coordinate) writes a
// short ERR line and the connection continues — only a full pipeline
// (socket error, EOF, panic) ends it, and that is package conn's concern,
// not this one's.
package cmdexec
