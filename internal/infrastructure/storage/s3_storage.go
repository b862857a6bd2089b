// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package storage archives recordings to an S3-compatible object storage
// such as Huawei OBS.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

const (
	// DefaultRegion is used when the endpoint does not need one.
	DefaultRegion = "us-east-1"
	// uploadPartSize and uploadConcurrency shape multipart uploads of recordings.
	uploadPartSize    = 16 << 20
	uploadConcurrency = 10
	listPageSize      = 1000
	// uploadTimeout bounds a whole recording upload.
	uploadTimeout = 2 * time.Hour
)

// Config holds the object storage credentials.
type Config struct {
	// Endpoint is the storage host, with or without scheme (https assumed).
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// PathStyle addresses buckets as a path instead of a virtual host.
	PathStyle bool
}

// S3Storage is an object storage client over the S3 protocol.
type S3Storage struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	host     string
}

var _ domain.ObjectStorage = (*S3Storage)(nil)

// NewS3Storage creates a storage client for config.
func NewS3Storage(config Config) (*S3Storage, error) {
	if config.Endpoint == "" || config.AccessKey == "" || config.SecretKey == "" {
		return nil, domain.NewValidationError("object storage endpoint and credentials are required")
	}
	endpoint := config.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, domain.NewValidationError("invalid object storage endpoint", err)
	}
	region := config.Region
	if region == "" {
		region = DefaultRegion
	}

	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		Credentials:      credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(config.PathStyle),
		HTTPClient:       platform.NewHTTPClient(uploadTimeout),
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to create object storage session", err)
	}

	return &S3Storage{
		client: s3.New(sess),
		uploader: s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
			u.PartSize = uploadPartSize
			u.Concurrency = uploadConcurrency
		}),
		host: parsed.Host,
	}, nil
}

// Upload stores the file at filePath under key with metadata.
func (s *S3Storage) Upload(ctx context.Context, bucket, key, filePath string, metadata map[string]string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to open %s", filePath), err)
	}
	defer file.Close()

	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if len(metadata) > 0 {
		input.Metadata = aws.StringMap(metadata)
	}

	result, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload object", logging.ErrKey, err, "bucket", bucket, "key", key)
		return domain.NewUnavailableError(fmt.Sprintf("failed to upload %s", key), err)
	}

	slog.InfoContext(ctx, "object uploaded", "bucket", bucket, "key", key, "location", result.Location)
	return nil
}

// GetObjectMetadata returns the size and user metadata of key. Metadata keys
// are lower-cased.
func (s *S3Storage) GetObjectMetadata(ctx context.Context, bucket, key string) (*domain.ObjectInfo, error) {
	out, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("object %s not found", key), err)
		}
		return nil, domain.NewUnavailableError(fmt.Sprintf("failed to read metadata of %s", key), err)
	}

	info := &domain.ObjectInfo{
		Key:      key,
		Size:     aws.Int64Value(out.ContentLength),
		Metadata: make(map[string]string, len(out.Metadata)),
	}
	for k, v := range out.Metadata {
		info.Metadata[strings.ToLower(k)] = aws.StringValue(v)
	}
	return info, nil
}

// ListObjects returns every object of bucket under prefix.
func (s *S3Storage) ListObjects(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	var objects []domain.ObjectInfo
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(listPageSize),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, object := range page.Contents {
			objects = append(objects, domain.ObjectInfo{
				Key:  aws.StringValue(object.Key),
				Size: aws.Int64Value(object.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, domain.NewUnavailableError(fmt.Sprintf("failed to list %s/%s", bucket, prefix), err)
	}
	return objects, nil
}

// DownloadURL returns the public attachment URL of key.
func (s *S3Storage) DownloadURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.%s/%s?response-content-disposition=attachment", bucket, s.host, key)
}

func isNotFound(err error) bool {
	var failure awserr.RequestFailure
	if errors.As(err, &failure) && failure.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	return errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound")
}
