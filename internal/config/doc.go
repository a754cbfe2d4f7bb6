// Package config holds the server's runtime configuration: listen
// address, canvas dimensions, protocol toggles, and buffer limits.
//
// Defaults live in Default(); an optional YAML file overlays on top of
// them (fields present in the file override the default, fields absent
// keep it), and Validate fills in any remaining zero values and rejects
// anything out of range.
package config
