// Package snapshot persists the canvas to a PNG file on shutdown and
// restores it on startup. It is entirely optional and orthogonal to the
// hot path: nothing in package conn or listener calls it, only cmd/
// does, and only when a snapshot path is configured.
package snapshot
