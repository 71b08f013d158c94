package transfer

import (
	"context"
	"crypto/md5" //nolint:gosec // mirrors the ETag scheme under test
	"encoding/hex"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncerrors "github.com/compbio-tools/s3smartsync/errors"
	"github.com/compbio-tools/s3smartsync/internal/testutil"
)

func etagOf(content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec // mirrors the ETag scheme under test
	return hex.EncodeToString(sum[:])
}

func TestUploadTransfersNewFiles(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data/sub", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha"), 0o644))
	require.NoError(t, fsys.WriteFile("/data/sub/b.bin", []byte{0x01, 0x02}, 0o644))

	mock := &testutil.MockS3Client{}

	u := New(mock, fsys, 2, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", map[string]string{
		"uid":  "6812",
		"mode": "33204",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Uploaded())
	assert.Equal(t, 0, result.Skipped())
	assert.Equal(t, int64(7), result.Bytes())

	require.Len(t, mock.PutObjectCalls, 2)
	byKey := map[string]*s3.PutObjectInput{}
	for _, call := range mock.PutObjectCalls {
		byKey[*call.Key] = call
	}

	call, ok := byKey["dest/a.txt"]
	require.True(t, ok)
	assert.Equal(t, "test-bucket", *call.Bucket)
	assert.Equal(t, "33204", call.Metadata["mode"])
	assert.Equal(t, "6812", call.Metadata["uid"])
	assert.Equal(t, int64(5), *call.ContentLength)

	_, ok = byKey["dest/sub/b.bin"]
	assert.True(t, ok)
}

func TestUploadSkipsMatchingRemoteCopy(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha"), 0o644))

	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{
					{
						Key:          aws.String("dest/a.txt"),
						Size:         aws.Int64(5),
						ETag:         aws.String(`"` + etagOf("alpha") + `"`),
						LastModified: aws.Time(time.Now()),
					},
				},
			}, nil
		},
	}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Uploaded())
	assert.Equal(t, 1, result.Skipped())
	assert.Empty(t, mock.PutObjectCalls)
}

func TestUploadReplacesChangedContent(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("bravo"), 0o644))

	// Same size, different content hash.
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{
					{
						Key:          aws.String("dest/a.txt"),
						Size:         aws.Int64(5),
						ETag:         aws.String(`"` + etagOf("alpha") + `"`),
						LastModified: aws.Time(time.Now()),
					},
				},
			}, nil
		},
	}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Uploaded())
	assert.Equal(t, 0, result.Skipped())
}

func TestUploadSizeMismatchAlwaysTransfers(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha-extended"), 0o644))

	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{
					{
						Key:          aws.String("dest/a.txt"),
						Size:         aws.Int64(5),
						LastModified: aws.Time(time.Now().Add(time.Hour)),
					},
				},
			}, nil
		},
	}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Uploaded())
}

func TestUploadPaginatesRemoteListing(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha"), 0o644))

	pages := 0
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			pages++
			if params.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page2"),
				}, nil
			}
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{
					{
						Key:          aws.String("dest/a.txt"),
						Size:         aws.Int64(5),
						ETag:         aws.String(`"` + etagOf("alpha") + `"`),
						LastModified: aws.Time(time.Now()),
					},
				},
			}, nil
		},
	}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 1, result.Skipped())
}

func TestUploadFailureStopsRun(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha"), 0o644))

	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, 0, result.Uploaded())

	rerr, ok := syncerrors.IsReconcile(err)
	require.True(t, ok)
	assert.Equal(t, syncerrors.PhaseTransfer, rerr.Phase)
	assert.Equal(t, "dest/a.txt", rerr.Key)
}

func TestUploadCancellationIsNotSuccess(t *testing.T) {
	// Workers exit quietly once the context is cancelled; the run as a whole
	// must still fail rather than report the dropped files as synced.
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha"), 0o644))
	require.NoError(t, fsys.WriteFile("/data/b.txt", []byte("bravo"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := &testutil.MockS3Client{
		PutObjectFunc: func(ctx context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			// Honor cancellation like a real SDK client so the second call
			// cannot succeed after the first one cancels the run.
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cancel()
			return &s3.PutObjectOutput{}, nil
		},
	}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(ctx, "/data", "test-bucket", "dest/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, result.Uploaded(), 2)
}

func TestUploadEmptyDirectory(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))

	mock := &testutil.MockS3Client{}

	u := New(mock, fsys, 1, nil)
	result, err := u.Upload(context.Background(), "/data", "test-bucket", "dest/", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Uploaded())
	assert.Empty(t, mock.PutObjectCalls)
}

func TestNeedsUploadMultipartETagFallsBackToModTime(t *testing.T) {
	// Multipart ETags are not content hashes, so equal sizes fall through to
	// the timestamp comparison with its tolerance window.
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/a.txt", []byte("alpha"), 0o644))

	u := New(&testutil.MockS3Client{}, fsys, 1, nil)
	remoteTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		modTime time.Time
		want    bool
	}{
		{
			name:    "local newer beyond tolerance",
			modTime: remoteTime.Add(3 * time.Second),
			want:    true,
		},
		{
			name:    "local newer within tolerance",
			modTime: remoteTime.Add(time.Second),
			want:    false,
		},
		{
			name:    "local equal",
			modTime: remoteTime,
			want:    false,
		},
		{
			name:    "local older",
			modTime: remoteTime.Add(-time.Hour),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := localFile{
				path:    "/data/a.txt",
				key:     "dest/a.txt",
				size:    5,
				modTime: tt.modTime,
			}
			remote := map[string]remoteObject{
				"dest/a.txt": {
					size:         5,
					etag:         etagOf("alpha") + "-2",
					lastModified: remoteTime,
				},
			}

			assert.Equal(t, tt.want, u.needsUpload(file, remote))
		})
	}
}

func TestDetectContentType(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))
	require.NoError(t, fsys.WriteFile("/data/page.html", []byte("<!DOCTYPE html><html></html>"), 0o644))

	u := New(&testutil.MockS3Client{}, fsys, 1, nil)

	f, err := fsys.Open("/data/page.html")
	require.NoError(t, err)
	defer f.Close()

	ct, err := u.detectContentType(f, "/data/page.html")
	require.NoError(t, err)
	assert.Contains(t, ct, "text/html")

	// The reader must be rewound for the subsequent upload.
	pos, err := f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}
