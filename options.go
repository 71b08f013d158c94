// Package smartsync provides functional options for configuring client and
// sync behavior. These options follow the functional options pattern for
// clean, composable configuration.
package smartsync

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// Option configures client construction.
type Option func(*clientConfig)

// clientConfig holds configuration applied during New.
type clientConfig struct {
	region          string
	profile         string
	endpoint        string
	maxRetries      int
	timeout         time.Duration
	concurrency     int
	forcePathStyle  bool
	customAWSConfig *aws.Config
	filesystem      fs.Filesystem
	logger          *slog.Logger
}

// WithRegion sets the AWS region for S3 operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) Option {
	return func(c *clientConfig) {
		c.region = region
	}
}

// WithProfile selects a named profile from the shared AWS configuration
// files. If not specified, the default credential chain applies.
func WithProfile(profile string) Option {
	return func(c *clientConfig) {
		c.profile = profile
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed
// operations. Default is 3 retries. Set to 0 to disable retries.
func WithMaxRetries(maxRetries int) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual S3 operations.
// Default is no timeout (0). Values should be positive durations.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithConcurrency sets the maximum number of concurrent S3 operations during
// key reconciliation and file transfer. Default is 5.
func WithConcurrency(concurrency int) Option {
	return func(c *clientConfig) {
		if concurrency > 0 {
			c.concurrency = concurrency
		}
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of
// virtual-hosted style. This is required for S3-compatible services that
// don't support virtual hosting. Default is false.
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(c *clientConfig) {
		c.forcePathStyle = forcePathStyle
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) Option {
	return func(c *clientConfig) {
		c.customAWSConfig = config
	}
}

// WithFilesystem sets a custom filesystem implementation for local file
// operations. This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) Option {
	return func(c *clientConfig) {
		c.filesystem = filesystem
	}
}

// WithLogger sets the structured logger used for progress reporting.
// If not specified, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// SyncOption configures a single Sync run.
type SyncOption func(*syncConfig)

// syncConfig holds per-run configuration applied during Sync.
type syncConfig struct {
	baseAttrs  Attributes
	transferer Transferer
}

// WithBaseAttributes sets the user-supplied object attributes for the run.
// The mode attribute is overridden per object class regardless of what the
// set contains.
func WithBaseAttributes(attrs Attributes) SyncOption {
	return func(c *syncConfig) {
		c.baseAttrs = attrs
	}
}

// WithTransferer replaces the built-in bulk file transfer with a custom
// implementation. This is primarily used for testing the orchestration
// sequence without touching S3.
func WithTransferer(t Transferer) SyncOption {
	return func(c *syncConfig) {
		c.transferer = t
	}
}
