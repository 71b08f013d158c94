// Package smartsync reconciles a local directory tree with an S3 bucket
// prefix before running a bulk content transfer.
//
// Every local directory is represented remotely by a zero-content key ending
// in "/" that carries ownership and mode metadata. Reconciliation brings the
// remote key set to a consistent baseline: missing keys are created, keys
// without metadata get a full metadata replace, keys with metadata are left
// alone. Only once every key is resolved does the bulk transfer upload file
// content, attaching the file-class metadata set.
//
// The key list is computed from a filesystem snapshot taken at start time and
// is never refreshed; if the local tree changes mid-run, behavior is
// undefined.
//
// Example:
//
//	client, err := smartsync.New(
//	    smartsync.WithProfile("research"),
//	    smartsync.WithConcurrency(8),
//	)
//	if err != nil {
//	    return err
//	}
//	attrs, err := smartsync.ParseAttributes(`{"uid":"6812","gid":"6812"}`)
//	if err != nil {
//	    return err
//	}
//	result, err := client.Sync(ctx, "/data/project", "my-bucket/home/project",
//	    smartsync.WithBaseAttributes(attrs),
//	)
package smartsync
