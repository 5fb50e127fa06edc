// Package tempshard implements the temp shard and temp ring: a small,
// fixed-capacity write buffer that absorbs concurrent writers without
// contending on a map shard's single current shard, and periodically
// reconciles its buffered rows into the target.
//
// Invoking the caller's callback while still holding the temp shard's
// write lock is a reentrancy hazard: the callback typically wants to
// insert into a map shard or index, and may itself call back into the
// ring. This package releases the write lock before invoking the
// callback, handing it an immutable snapshot of (row bytes, assigned
// global index) pairs instead.
package tempshard
