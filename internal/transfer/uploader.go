package transfer

import (
	"context"
	"crypto/md5" //nolint:gosec // matches S3 ETag computation, not used for security
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	syncerrors "github.com/compbio-tools/s3smartsync/errors"
	"github.com/compbio-tools/s3smartsync/internal/s3api"
)

// DefaultContentType is used when content sniffing and extension lookup
// both come up empty.
const DefaultContentType = "application/octet-stream"

// modTimeTolerance absorbs filesystem/S3 timestamp granularity differences
// when comparing modification times.
const modTimeTolerance = 2 * time.Second

// Uploader copies the files under a local directory to a key prefix,
// skipping files whose remote copy is already current.
type Uploader struct {
	s3Client    s3api.S3API
	fsys        fs.Filesystem
	concurrency int
	logger      *slog.Logger
}

// New creates an uploader. A non-positive concurrency falls back to the
// default of 5.
func New(s3Client s3api.S3API, fsys fs.Filesystem, concurrency int, logger *slog.Logger) *Uploader {
	if concurrency <= 0 {
		concurrency = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		s3Client:    s3Client,
		fsys:        fsys,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Result aggregates the outcome of a bulk upload.
type Result struct {
	uploaded int64
	skipped  int64
	bytes    int64
}

// Uploaded returns the number of files uploaded.
func (r *Result) Uploaded() int {
	return int(atomic.LoadInt64(&r.uploaded))
}

// Skipped returns the number of files left alone because the remote copy
// was already current.
func (r *Result) Skipped() int {
	return int(atomic.LoadInt64(&r.skipped))
}

// Bytes returns the total bytes uploaded.
func (r *Result) Bytes() int64 {
	return atomic.LoadInt64(&r.bytes)
}

// localFile describes a file found under the upload root.
type localFile struct {
	path    string
	key     string
	size    int64
	modTime time.Time
}

// remoteObject describes an object already present under the key prefix.
type remoteObject struct {
	size         int64
	etag         string
	lastModified time.Time
}

// Upload transfers every file under localPath to keyPrefix in bucket,
// applying attrs as object metadata on each uploaded object. Files whose
// remote copy matches by size and content (or is at least as recent) are
// skipped. Uploads run in parallel; the first failure cancels the rest.
func (u *Uploader) Upload(
	ctx context.Context,
	localPath, bucket, keyPrefix string,
	attrs map[string]string,
) (*Result, error) {
	result := &Result{}

	remote, err := u.listRemote(ctx, bucket, keyPrefix)
	if err != nil {
		return result, syncerrors.NewError("Upload", err).WithBucket(bucket).WithMessage("failed to list remote objects")
	}

	files, err := u.scanLocal(localPath, keyPrefix)
	if err != nil {
		return result, err
	}
	if len(files) == 0 {
		return result, nil
	}

	semaphore := make(chan struct{}, u.concurrency)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			if !u.needsUpload(file, remote) {
				u.logger.Debug("remote copy current, skipping", "key", file.key)
				atomic.AddInt64(&result.skipped, 1)
				return
			}

			if err := u.uploadFile(ctx, file, bucket, attrs, result); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return result, firstErr
	}
	// Workers bail out quietly when the context is cancelled, so a clean
	// firstErr alone does not mean every file was handled. An interrupted
	// run must not report success.
	if err := ctx.Err(); err != nil {
		return result, syncerrors.NewError("Upload", err).
			WithBucket(bucket).
			WithMessage("transfer interrupted")
	}
	return result, nil
}

// scanLocal walks the upload root and returns its files, keyed under prefix,
// in lexical order.
func (u *Uploader) scanLocal(localPath, prefix string) ([]localFile, error) {
	var files []localFile

	err := u.fsys.Walk(localPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(localPath, path)
		if relErr != nil {
			return relErr
		}

		files = append(files, localFile{
			path:    path,
			key:     prefix + filepath.ToSlash(rel),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, syncerrors.NewError("Upload", err).WithMessage(
			fmt.Sprintf("failed to scan local directory %s", localPath))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}

// listRemote pages through the objects under prefix and indexes them by key.
func (u *Uploader) listRemote(ctx context.Context, bucket, prefix string) (map[string]remoteObject, error) {
	remote := make(map[string]remoteObject)

	var continuationToken *string
	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: continuationToken,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		output, err := u.s3Client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, err
		}

		for _, obj := range output.Contents {
			if obj.Key == nil {
				continue
			}
			entry := remoteObject{}
			if obj.Size != nil {
				entry.size = *obj.Size
			}
			if obj.ETag != nil {
				entry.etag = strings.Trim(*obj.ETag, `"`)
			}
			if obj.LastModified != nil {
				entry.lastModified = *obj.LastModified
			}
			remote[*obj.Key] = entry
		}

		if output.IsTruncated == nil || !*output.IsTruncated {
			break
		}
		continuationToken = output.NextContinuationToken
	}

	return remote, nil
}

// needsUpload decides whether the local file must be transferred. A size
// mismatch always uploads. When sizes match, a single-part ETag is compared
// against the local content hash; multipart ETags fall back to a timestamp
// comparison with tolerance.
func (u *Uploader) needsUpload(file localFile, remote map[string]remoteObject) bool {
	obj, exists := remote[file.key]
	if !exists {
		return true
	}
	if obj.size != file.size {
		return true
	}

	// Multipart ETags contain a part-count suffix and are not content hashes.
	if obj.etag != "" && !strings.Contains(obj.etag, "-") {
		sum, err := u.contentHash(file.path)
		if err == nil {
			return sum != obj.etag
		}
	}

	return file.modTime.After(obj.lastModified.Add(modTimeTolerance))
}

// contentHash computes the hash S3 reports as the ETag of a single-part
// object.
func (u *Uploader) contentHash(path string) (string, error) {
	f, err := u.fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // matches S3 ETag computation, not used for security
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// uploadFile transfers one file with the given metadata attached.
func (u *Uploader) uploadFile(
	ctx context.Context,
	file localFile,
	bucket string,
	attrs map[string]string,
	result *Result,
) error {
	f, err := u.fsys.Open(file.path)
	if err != nil {
		return syncerrors.NewReconcileError(file.key, syncerrors.PhaseTransfer,
			fmt.Errorf("open %s: %w", file.path, err))
	}
	defer f.Close()

	contentType, err := u.detectContentType(f, file.path)
	if err != nil {
		return syncerrors.NewReconcileError(file.key, syncerrors.PhaseTransfer, err)
	}

	u.logger.Info("uploading file", "bucket", bucket, "key", file.key, "size", file.size)

	_, err = u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(file.key),
		Body:          f,
		ContentLength: aws.Int64(file.size),
		ContentType:   aws.String(contentType),
		Metadata:      attrs,
	})
	if err != nil {
		return syncerrors.NewReconcileError(file.key, syncerrors.PhaseTransfer, err)
	}

	atomic.AddInt64(&result.uploaded, 1)
	atomic.AddInt64(&result.bytes, file.size)
	return nil
}

// detectContentType sniffs the file's leading bytes, falling back to
// extension-based lookup. The file is rewound before returning.
func (u *Uploader) detectContentType(f fs.File, path string) (string, error) {
	buf := make([]byte, 512)
	n, _ := f.Read(buf)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String(), nil
		}
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt, nil
		}
	}

	return DefaultContentType, nil
}
