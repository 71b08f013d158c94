package smartsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compbio-tools/s3smartsync/errors"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{
			name:       "bucket and prefix",
			raw:        "my-bucket/backups/2024",
			wantBucket: "my-bucket",
			wantPrefix: "backups/2024",
		},
		{
			name:       "bucket only",
			raw:        "my-bucket",
			wantBucket: "my-bucket",
			wantPrefix: "",
		},
		{
			name:       "s3 scheme stripped",
			raw:        "s3://my-bucket/data",
			wantBucket: "my-bucket",
			wantPrefix: "data",
		},
		{
			name:       "trailing slash trimmed",
			raw:        "my-bucket/data/",
			wantBucket: "my-bucket",
			wantPrefix: "data",
		},
		{
			name:       "only first slash splits",
			raw:        "my-bucket/a/b/c",
			wantBucket: "my-bucket",
			wantPrefix: "a/b/c",
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "scheme only",
			raw:     "s3://",
			wantErr: true,
		},
		{
			name:    "invalid bucket name",
			raw:     "My_Bucket/data",
			wantErr: true,
		},
		{
			name:    "bucket name too short",
			raw:     "ab/data",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseTarget(tt.raw)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidTarget(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, target.Bucket)
			assert.Equal(t, tt.wantPrefix, target.Prefix)
		})
	}
}

func TestTargetKeyPrefix(t *testing.T) {
	target := &Target{Bucket: "b", Prefix: "data/sub"}
	assert.Equal(t, "data/sub/", target.KeyPrefix())
	assert.Equal(t, "data/sub/", target.RootKey())

	root := &Target{Bucket: "b"}
	assert.Equal(t, "", root.KeyPrefix())
	assert.Equal(t, "", root.RootKey())
}

func TestTargetURI(t *testing.T) {
	target := &Target{Bucket: "b", Prefix: "data"}
	assert.Equal(t, "s3://b/data", target.URI())

	root := &Target{Bucket: "b"}
	assert.Equal(t, "s3://b", root.URI())
}
