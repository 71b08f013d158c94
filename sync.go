package smartsync

import (
	"context"
	"time"

	"github.com/compbio-tools/s3smartsync/internal/reconcile"
	"github.com/compbio-tools/s3smartsync/internal/transfer"
	"github.com/compbio-tools/s3smartsync/internal/validation"
)

// SyncResult reports the outcome of a full sync run.
type SyncResult struct {
	// KeysCreated is the number of directory keys created during reconciliation
	KeysCreated int

	// KeysUpdated is the number of directory keys whose metadata was replaced
	KeysUpdated int

	// KeysUnchanged is the number of directory keys already in their converged state
	KeysUnchanged int

	// FilesUploaded is the number of files transferred
	FilesUploaded int

	// FilesSkipped is the number of files whose remote copy was already current
	FilesSkipped int

	// BytesUploaded is the total bytes transferred
	BytesUploaded int64

	// Duration is the wall-clock time of the whole run
	Duration time.Duration
}

// TransferResult reports the outcome of the bulk file transfer step.
type TransferResult struct {
	// Uploaded is the number of files transferred
	Uploaded int

	// Skipped is the number of files whose remote copy was already current
	Skipped int

	// Bytes is the total bytes transferred
	Bytes int64
}

// Transferer performs the bulk file transfer that follows directory key
// reconciliation. Implementations must apply attrs to every object they
// write.
type Transferer interface {
	Transfer(ctx context.Context, localPath string, target *Target, attrs Attributes) (*TransferResult, error)
}

// s3Transferer is the built-in Transferer backed by the client's S3
// connection and filesystem.
type s3Transferer struct {
	client *Client
}

// Transfer implements Transferer.
func (t *s3Transferer) Transfer(ctx context.Context, localPath string, target *Target, attrs Attributes) (*TransferResult, error) {
	u := transfer.New(t.client.s3Client, t.client.fs, t.client.concurrency, t.client.logger)

	result, err := u.Upload(ctx, localPath, target.Bucket, target.KeyPrefix(), attrs)
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		Uploaded: result.Uploaded(),
		Skipped:  result.Skipped(),
		Bytes:    result.Bytes(),
	}, nil
}

// Sync mirrors the directory tree at localPath to the given target
// ("bucket/prefix", with an optional "s3://" scheme).
//
// The run proceeds in three strictly ordered stages:
//
//  1. The key standing for the prefix itself is reconciled, so the
//     destination root exists with directory metadata before anything below
//     it. A bucket-root target has no such key and skips this stage.
//  2. Every subdirectory key derived from the local tree is reconciled, in
//     parallel up to the client's concurrency. Any failure aborts the run
//     before stage 3.
//  3. The files under localPath are bulk-transferred with file metadata
//     attached; unchanged files are skipped.
//
// Directory keys always carry directory metadata and transferred files
// always carry file metadata, regardless of the mode value in the base
// attribute set.
func (c *Client) Sync(ctx context.Context, localPath, rawTarget string, opts ...SyncOption) (*SyncResult, error) {
	start := time.Now()

	syncCfg := &syncConfig{}
	for _, opt := range opts {
		opt(syncCfg)
	}

	target, err := ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	baseAttrs := syncCfg.baseAttrs
	if baseAttrs == nil {
		baseAttrs = Attributes{}
	}
	if err := validation.ValidateMetadata(baseAttrs); err != nil {
		return nil, err
	}

	dirAttrs := baseAttrs.ForDirectories()
	fileAttrs := baseAttrs.ForFiles()

	keys, err := DirectoryKeys(c.fs, localPath, target)
	if err != nil {
		return nil, err
	}

	c.logger.Info("starting sync",
		"local", localPath,
		"target", target.URI(),
		"directories", len(keys),
	)

	result := &SyncResult{}
	reconciler := reconcile.New(c.s3Client, target.Bucket, c.concurrency, c.logger)

	// The root key converges first so the destination prefix exists before
	// any key below it is touched.
	if rootKey := target.RootKey(); rootKey != "" {
		rootResult, err := reconciler.Reconcile(ctx, []string{rootKey}, dirAttrs)
		if err != nil {
			return nil, err
		}
		result.KeysCreated += rootResult.Created()
		result.KeysUpdated += rootResult.Updated()
		result.KeysUnchanged += rootResult.Unchanged()
	}

	subResult, err := reconciler.Reconcile(ctx, subdirectoryKeys(keys), dirAttrs)
	if err != nil {
		return nil, err
	}
	result.KeysCreated += subResult.Created()
	result.KeysUpdated += subResult.Updated()
	result.KeysUnchanged += subResult.Unchanged()

	// All directory keys are settled; only now do files move.
	transferer := syncCfg.transferer
	if transferer == nil {
		transferer = &s3Transferer{client: c}
	}

	transferResult, err := transferer.Transfer(ctx, localPath, target, fileAttrs)
	if err != nil {
		return nil, err
	}

	result.FilesUploaded = transferResult.Uploaded
	result.FilesSkipped = transferResult.Skipped
	result.BytesUploaded = transferResult.Bytes
	result.Duration = time.Since(start)

	c.logger.Info("sync complete",
		"created", result.KeysCreated,
		"updated", result.KeysUpdated,
		"unchanged", result.KeysUnchanged,
		"uploaded", result.FilesUploaded,
		"skipped", result.FilesSkipped,
		"bytes", result.BytesUploaded,
		"duration", result.Duration,
	)

	return result, nil
}
