// Package conn runs one pixelflut client connection: a single goroutine
// that reads bytes into an input buffer, drains it through the codec and
// executor synchronously, and flushes any produced reply bytes back to
// the socket.
//
// There is no concurrency in a Conn's command processing: reading,
// decoding, executing and writing all happen on that one goroutine. The
// cost of parsing one command is low enough that splitting that work
// across goroutines would be pure overhead; scaling happens across
// connections, handled by package listener spawning one Conn goroutine per
// accepted socket. The only other goroutine a Conn starts is a small
// watcher that expires the socket's read deadline when shutdown is
// signalled.
package conn
