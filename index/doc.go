// Package index implements the sorted key/value index shard: entries
// framed as a double length-prefixed record atop the same map-shard
// machinery the data shards use, with insert-time bubble-up order
// maintenance and binary search across the current and past shards.
package index
