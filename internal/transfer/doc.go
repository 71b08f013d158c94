// Package transfer implements the bulk file upload that follows key
// reconciliation. It scans the local tree, compares each file against the
// remote inventory by size, content hash, and modification time, and uploads
// only what changed, attaching the caller's metadata to every object it
// writes.
package transfer
