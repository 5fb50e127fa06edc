// Package mapshard implements the rolling chain of data shards: one
// writable "current" shard plus an ordered set of read-only "past"
// shards, addressed as a single global slot space.
//
// Existing shard files are discovered on open, newest becomes current;
// a fresh current shard is created when none exist yet. The chain
// grows by rollover rather than wrapping, so it can accumulate without
// bound as more data arrives.
package mapshard
