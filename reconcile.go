package smartsync

import (
	"context"

	"github.com/compbio-tools/s3smartsync/internal/reconcile"
)

// ReconcileResult reports the outcome of bringing a key list into its
// converged state.
type ReconcileResult struct {
	// Created is the number of keys that did not exist and were created
	Created int

	// Updated is the number of keys whose empty metadata was replaced
	Updated int

	// Unchanged is the number of keys that already carried metadata
	Unchanged int
}

// Reconcile ensures every key in the list exists in the target bucket and
// carries non-empty metadata, applying attrs where a create or metadata
// replace is needed. Keys are processed in parallel up to the client's
// concurrency; the first failure cancels the remaining work and is returned
// as an *errors.ReconcileError.
//
// Reconcile is idempotent: a second run over converged state issues no
// further writes.
func (c *Client) Reconcile(ctx context.Context, bucket string, keys []string, attrs Attributes) (*ReconcileResult, error) {
	r := reconcile.New(c.s3Client, bucket, c.concurrency, c.logger)

	result, err := r.Reconcile(ctx, keys, attrs)
	if err != nil {
		return nil, err
	}

	return &ReconcileResult{
		Created:   result.Created(),
		Updated:   result.Updated(),
		Unchanged: result.Unchanged(),
	}, nil
}
