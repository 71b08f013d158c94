// Package reconcile brings a list of directory-class remote keys to a state
// where each exists and carries non-empty metadata.
//
// Every key runs the same state machine independently: a combined
// existence/metadata lookup, then either a zero-content create, a full
// metadata replace, or nothing. Keys are processed by a fixed-size worker
// pool; the first failure cancels the remaining work.
package reconcile

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	syncerrors "github.com/compbio-tools/s3smartsync/errors"
	"github.com/compbio-tools/s3smartsync/internal/s3api"
)

// Reconciler runs the per-key state machine against a single bucket.
// The underlying client and credentials are read-shared across workers.
type Reconciler struct {
	s3Client s3api.S3API
	bucket   string
	workers  int
	logger   *slog.Logger
}

// New creates a reconciler for the given bucket. A non-positive worker count
// falls back to the default of 5.
func New(s3Client s3api.S3API, bucket string, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		s3Client: s3Client,
		bucket:   bucket,
		workers:  workers,
		logger:   logger,
	}
}

// Result aggregates the outcome of reconciling a key list.
type Result struct {
	// created counts keys that did not exist and were created (atomic)
	created int64

	// updated counts keys whose empty metadata was replaced (atomic)
	updated int64

	// unchanged counts keys that already carried metadata (atomic)
	unchanged int64
}

// Created returns the number of keys created (safe for concurrent access).
func (r *Result) Created() int {
	return int(atomic.LoadInt64(&r.created))
}

// Updated returns the number of keys whose metadata was replaced (safe for concurrent access).
func (r *Result) Updated() int {
	return int(atomic.LoadInt64(&r.updated))
}

// Unchanged returns the number of keys left untouched (safe for concurrent access).
func (r *Result) Unchanged() int {
	return int(atomic.LoadInt64(&r.unchanged))
}

// Reconcile runs the state machine for every key in the list, applying attrs
// to keys that need a create or a metadata replace. Processing is
// parallelized across the configured worker count; the first per-key failure
// cancels in-flight workers and is returned as a ReconcileError.
//
// Reconcile is idempotent: running it again over converged remote state
// issues no further mutations.
func (r *Reconciler) Reconcile(ctx context.Context, keys []string, attrs map[string]string) (*Result, error) {
	result := &Result{}
	if len(keys) == 0 {
		return result, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, key := range keys {
		g.Go(func() error {
			// A sibling failure cancels the group; don't start more work.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return r.reconcileKey(ctx, key, attrs, result)
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// reconcileKey runs the state machine for a single key:
//
//	lookup -> missing        -> create with attrs
//	lookup -> empty metadata -> replace metadata with attrs
//	lookup -> has metadata   -> done
//
// Only a genuine not-found response drives the create branch. Every other
// lookup failure aborts the key as a lookup-phase ReconcileError; creating
// on a transient error could overwrite an existing, differently-owned object.
func (r *Reconciler) reconcileKey(ctx context.Context, key string, attrs map[string]string, result *Result) error {
	head, err := r.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})

	switch {
	case err == nil && len(head.Metadata) > 0:
		atomic.AddInt64(&result.unchanged, 1)
		return nil

	case err == nil:
		return r.replaceMetadata(ctx, key, attrs, result)

	case isNotFound(err):
		return r.createKey(ctx, key, attrs, result)

	default:
		return syncerrors.NewReconcileError(key, syncerrors.PhaseLookup, err)
	}
}

// createKey creates a zero-content object for a missing directory key.
func (r *Reconciler) createKey(ctx context.Context, key string, attrs map[string]string, result *Result) error {
	r.logger.Info("creating missing directory key", "bucket", r.bucket, "key", key)

	_, err := r.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(r.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(nil),
		Metadata: attrs,
	})
	if err != nil {
		return syncerrors.NewReconcileError(key, syncerrors.PhaseCreate, err)
	}

	atomic.AddInt64(&result.created, 1)
	return nil
}

// replaceMetadata installs attrs on an existing key via a self-copy with
// metadata REPLACE semantics. The previous metadata (empty by the state
// machine's precondition) is fully replaced, not merged.
func (r *Reconciler) replaceMetadata(ctx context.Context, key string, attrs map[string]string, result *Result) error {
	r.logger.Info("no metadata found, replacing", "bucket", r.bucket, "key", key)

	_, err := r.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(r.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(r.bucket + "/" + key),
		Metadata:          attrs,
		MetadataDirective: awstypes.MetadataDirectiveReplace,
	})
	if err != nil {
		return syncerrors.NewReconcileError(key, syncerrors.PhaseUpdate, err)
	}

	atomic.AddInt64(&result.updated, 1)
	return nil
}

// isNotFound reports whether err is a genuine S3 not-found response, as
// opposed to a transient or permission failure.
func isNotFound(err error) bool {
	var notFound *awstypes.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var noSuchKey *awstypes.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}

	return false
}
