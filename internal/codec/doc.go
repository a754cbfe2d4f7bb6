// Package codec implements the pixelflut wire grammar: a resumable parser
// that turns a connection's unconsumed byte slice into one Command at a
// time, without allocating and without remembering anything between calls.
//
// # Statelessness
//
// Decode takes the current unconsumed slice and returns how many bytes of
// it belong to the frame it just recognized (or failed to recognize). It
// never looks at anything but that slice: all "where was I" state lives in
// the caller's buffer positions (see package pipebuf), not in the codec.
// This is what lets the caller compact or grow the buffer between calls
// without the codec needing to know.
//
// # Framing
//
// Two frame shapes share the wire: a '\n'-terminated ASCII text command
// (SIZE, HELP, PX ...), and — when enabled — a fixed 10-byte binary PB
// frame. The first two bytes of a new frame decide which: exactly "PB"
// means binary, anything else means scan for the next '\n'.
package codec
