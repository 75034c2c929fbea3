// Package storage uploads listing photos to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const imagePrefix = "furniture-images"

// Uploader stores an image and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// S3Storage is the S3-compatible Uploader.
type S3Storage struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// Ensure S3Storage implements Uploader.
var _ Uploader = (*S3Storage)(nil)

// NewS3Storage creates an uploader against an S3-compatible endpoint.
func NewS3Storage(ctx context.Context, key, secret, region, bucket, endpoint string) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:   client,
		bucket:   bucket,
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}, nil
}

// UploadImage puts the image under furniture-images/<name> with public-read
// ACL and returns the public URL.
func (s *S3Storage) UploadImage(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s", imagePrefix, name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         "public-read",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}
