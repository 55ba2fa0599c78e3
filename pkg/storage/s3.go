package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Backend stores each value as one S3 object under a key prefix.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "us-east-1", Credentials: creds})
//	backend := storage.NewS3Backend(client, "pigment-site", "stores/")
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
	closed bool
}

// NewS3Backend creates a new S3-backed storage backend.
//
// Parameters:
//   - client: AWS S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: key prefix for store objects (e.g., "stores/")
func NewS3Backend(client *s3.Client, bucket, prefix string) *S3Backend {
	return &S3Backend{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *S3Backend) objectKey(key string) string {
	return s.prefix + key
}

// Save uploads data as the object for key.
func (s *S3Backend) Save(ctx context.Context, key string, data []byte) error {
	if s.closed {
		return ErrBackendClosed{}
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// Load downloads the object for key, or returns (nil, nil) if it
// doesn't exist.
func (s *S3Backend) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed {
		return nil, ErrBackendClosed{}
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 download failed: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3 object: %w", err)
	}
	return data, nil
}

// Delete removes the object for key. Deleting a missing object is not
// an error in S3.
func (s *S3Backend) Delete(ctx context.Context, key string) error {
	if s.closed {
		return ErrBackendClosed{}
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// Keys lists all object keys under the configured prefix, with the
// prefix stripped.
func (s *S3Backend) Keys(ctx context.Context) ([]string, error) {
	if s.closed {
		return nil, ErrBackendClosed{}
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, (*obj.Key)[len(s.prefix):])
		}
	}
	return keys, nil
}

// Close marks the backend closed. The S3 client is shared and left open.
func (s *S3Backend) Close() error {
	s.closed = true
	return nil
}
