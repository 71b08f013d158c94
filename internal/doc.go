// Package internal contains private implementation details for the smartsync module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - s3api: Interface subset of the AWS S3 client used for mocking
//   - reconcile: Per-key existence/metadata reconciliation state machine
//   - transfer: Bulk content transfer (scan, compare, upload)
//   - validation: Input validation logic
//   - testutil: Mocks shared by package tests
package internal
