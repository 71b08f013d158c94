// Package testutil provides test doubles shared across package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockS3Client is a configurable mock for the S3 operations the library
// performs. Set the function fields to control behavior; unset operations
// return zero-value outputs. Call counts are tracked per operation and are
// safe for concurrent use.
type MockS3Client struct {
	mu sync.Mutex

	HeadObjectFunc    func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObjectFunc     func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObjectFunc    func(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	ListObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)

	HeadObjectCalls    []*s3.HeadObjectInput
	PutObjectCalls     []*s3.PutObjectInput
	CopyObjectCalls    []*s3.CopyObjectInput
	ListObjectsV2Calls []*s3.ListObjectsV2Input
}

// HeadObject implements the S3 API for the mock.
func (m *MockS3Client) HeadObject(
	ctx context.Context,
	params *s3.HeadObjectInput,
	optFns ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	m.HeadObjectCalls = append(m.HeadObjectCalls, params)
	m.mu.Unlock()

	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, params, optFns...)
	}
	return &s3.HeadObjectOutput{}, nil
}

// PutObject implements the S3 API for the mock.
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	m.PutObjectCalls = append(m.PutObjectCalls, params)
	m.mu.Unlock()

	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// CopyObject implements the S3 API for the mock.
func (m *MockS3Client) CopyObject(
	ctx context.Context,
	params *s3.CopyObjectInput,
	optFns ...func(*s3.Options),
) (*s3.CopyObjectOutput, error) {
	m.mu.Lock()
	m.CopyObjectCalls = append(m.CopyObjectCalls, params)
	m.mu.Unlock()

	if m.CopyObjectFunc != nil {
		return m.CopyObjectFunc(ctx, params, optFns...)
	}
	return &s3.CopyObjectOutput{}, nil
}

// ListObjectsV2 implements the S3 API for the mock.
func (m *MockS3Client) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	m.ListObjectsV2Calls = append(m.ListObjectsV2Calls, params)
	m.mu.Unlock()

	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

// HeadObjectCallCount returns the number of HeadObject invocations.
func (m *MockS3Client) HeadObjectCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.HeadObjectCalls)
}

// PutObjectCallCount returns the number of PutObject invocations.
func (m *MockS3Client) PutObjectCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PutObjectCalls)
}

// CopyObjectCallCount returns the number of CopyObject invocations.
func (m *MockS3Client) CopyObjectCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CopyObjectCalls)
}
