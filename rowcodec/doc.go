// Package rowcodec declares the collaborator interfaces the storage
// core consumes but does not implement: row serialization, column
// value extraction, and the post-reconcile notification hook. The
// query planner, expression evaluator, and the concrete JSON codec
// live outside the core.
package rowcodec
