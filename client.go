package smartsync

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/compbio-tools/s3smartsync/errors"
	"github.com/compbio-tools/s3smartsync/internal/s3api"
)

// Client synchronizes local directory trees to S3 with directory-marker
// and metadata management. It is safe for concurrent use.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// config holds the AWS configuration
	config aws.Config

	// fs is the filesystem abstraction for local file operations
	fs fs.Filesystem

	// concurrency bounds parallel S3 operations
	concurrency int

	logger *slog.Logger
}

// New creates a new client with the provided options. It loads AWS
// credentials using the default credential chain (or the named profile when
// WithProfile is given) and applies the specified configuration options.
//
// Example:
//
//	client, err := smartsync.New(
//	    smartsync.WithProfile("prod"),
//	    smartsync.WithConcurrency(10),
//	)
func New(opts ...Option) (*Client, error) {
	clientCfg := &clientConfig{
		maxRetries:  3,
		concurrency: 5,
	}

	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	var err error

	if clientCfg.customAWSConfig != nil {
		cfg = *clientCfg.customAWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(clientCfg.profile))
		}
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.region != "" {
		cfg.Region = clientCfg.region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if clientCfg.maxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.maxRetries
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(clientCfg.endpoint)
		})
	}

	if clientCfg.forcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.timeout > 0 {
		httpClient := &http.Client{
			Timeout: clientCfg.timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	filesystem := clientCfg.filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	logger := clientCfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		s3Client:    s3.NewFromConfig(cfg, s3Opts...),
		config:      cfg,
		fs:          filesystem,
		concurrency: clientCfg.concurrency,
		logger:      logger,
	}, nil
}

// NewWithClient creates a client with a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, opts ...Option) *Client {
	clientCfg := &clientConfig{
		concurrency: 5,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	filesystem := clientCfg.filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	logger := clientCfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		s3Client:    s3Client,
		config:      aws.Config{},
		fs:          filesystem,
		concurrency: clientCfg.concurrency,
		logger:      logger,
	}
}

// SetFilesystem sets the filesystem implementation for the client.
func (c *Client) SetFilesystem(filesystem fs.Filesystem) {
	c.fs = filesystem
}
