// Package config holds the enumerated store options (shard capacities,
// temp ring width, FD manager bound, per-index binary-order toggle)
// and their on-disk persistence.
//
// A plain options struct with defaults, plus a verify-or-write pass
// that persists the options that affect file layout on first use and
// checks later opens against them. Loading goes through
// tailscale/hujson rather than strict encoding/json so a checked-in
// config file can carry comments, and writes go through
// natefinch/atomic so a crash mid-write never leaves a corrupt config
// file behind.
package config
