// Package ratelimit paces how many bytes a single connection may read from
// its socket per unit time, expressed as a bits-per-second cap.
package ratelimit
