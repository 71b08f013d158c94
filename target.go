package smartsync

import (
	"strings"

	"github.com/compbio-tools/s3smartsync/errors"
	"github.com/compbio-tools/s3smartsync/internal/validation"
)

// Target identifies the remote location of a sync: an S3 bucket and the key
// prefix under which the local tree is mirrored. An empty prefix means the
// bucket root. Targets are computed once at startup and are read-only
// thereafter.
type Target struct {
	// Bucket is the S3 bucket name
	Bucket string

	// Prefix is the key prefix below the bucket, without a leading slash.
	// May be empty.
	Prefix string
}

// ParseTarget splits a user-supplied target string into bucket and prefix on
// the first "/". An optional "s3://" scheme is accepted and stripped.
//
// A target with no "/" refers to the bucket root: the whole string is the
// bucket and the prefix is empty.
//
// Returns ErrInvalidTarget if the input is empty or the bucket name is not
// DNS-compliant.
func ParseTarget(raw string) (*Target, error) {
	raw = strings.TrimPrefix(raw, "s3://")
	if raw == "" {
		return nil, errors.NewError("parseTarget", errors.ErrInvalidTarget).
			WithMessage("target cannot be empty")
	}

	bucket, prefix, _ := strings.Cut(raw, "/")
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, errors.NewError("parseTarget", errors.ErrInvalidTarget).
			WithBucket(bucket).
			WithMessage(err.Error())
	}
	prefix = strings.TrimSuffix(prefix, "/")

	return &Target{
		Bucket: bucket,
		Prefix: prefix,
	}, nil
}

// KeyPrefix returns the prefix normalized for key derivation: non-empty
// prefixes carry a trailing "/", an empty prefix stays empty.
func (t *Target) KeyPrefix() string {
	if t.Prefix == "" {
		return ""
	}
	return t.Prefix + "/"
}

// RootKey returns the directory-class key standing in for the prefix itself.
// It is empty when the target is the bucket root, which needs no directory
// marker.
func (t *Target) RootKey() string {
	return t.KeyPrefix()
}

// URI returns the s3:// URI form of the target, as consumed by the bulk
// transfer step.
func (t *Target) URI() string {
	if t.Prefix == "" {
		return "s3://" + t.Bucket
	}
	return "s3://" + t.Bucket + "/" + t.Prefix
}

// String implements fmt.Stringer.
func (t *Target) String() string {
	return t.URI()
}
