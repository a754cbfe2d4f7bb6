// Package listener runs the server's accept loop: bind once, spawn one
// conn.Conn goroutine per accepted socket, and on shutdown stop accepting
// and let live connections finish their current drain before exiting.
package listener
