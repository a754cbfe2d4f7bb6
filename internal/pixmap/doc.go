// Package pixmap implements the shared pixel canvas: a fixed-size RGBA
// framebuffer written by many connection goroutines and read by one
// external renderer.
//
// # Concurrency
//
// There is no mutex on the canvas. Each pixel is stored as a single
// little-endian uint32 (R,G,B,A in byte order) and mutated with
// sync/atomic, so a racing pair of opaque writes to the same pixel always
// produces one of the two submitted values, never a torn mix of both — but
// which one wins is unspecified. A whole-buffer read (Bytes) may observe a
// mix of old and new pixels; callers must tolerate that.
//
// Alpha-blended writes (alpha < 0xFF) are not atomic as a whole: they read
// the current pixel, blend, and store, and a second writer racing the same
// pixel in the same window can clobber the blend. This is accepted by
// design — see Set.
package pixmap
