package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultBucket holds task attachments
const DefaultBucket = "task-manager-task-attachments"

// MinioConfig configures an S3-compatible store (MinIO, R2, S3)
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"TASKMANAGER_MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"TASKMANAGER_MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"TASKMANAGER_MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"TASKMANAGER_MINIO_BUCKET" env-default:"task-manager-task-attachments"`
	Region    string `yaml:"region" env:"TASKMANAGER_MINIO_REGION"`
	UseSSL    bool   `yaml:"use_ssl" env:"TASKMANAGER_MINIO_USE_SSL"`
	// PublicURL is used for public links when the bucket is served through
	// a CDN or public endpoint
	PublicURL string `yaml:"public_url" env:"TASKMANAGER_MINIO_PUBLIC_URL"`
}

// MinioStore keeps blobs in a bucket and signs URLs with S3 presigning
type MinioStore struct {
	client    *minio.Client
	bucket    string
	endpoint  string
	useSSL    bool
	publicURL string
}

// NewMinioStore connects and creates the bucket when it does not exist.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("S3 bucket created", "bucket", bucket)
	}

	slog.Info("S3 storage initialized", "endpoint", cfg.Endpoint, "bucket", bucket, "ssl", cfg.UseSSL)

	return &MinioStore{
		client:    client,
		bucket:    bucket,
		endpoint:  cfg.Endpoint,
		useSSL:    cfg.UseSSL,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func (s *MinioStore) Provider() string { return "minio" }

func (s *MinioStore) Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) error {
	key, err := normalize(p)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	slog.Debug("blob uploaded to S3", "path", key, "content_type", contentType)
	return nil
}

// Remove deletes the object. S3 reports success for missing keys.
func (s *MinioStore) Remove(ctx context.Context, p string) error {
	key, err := normalize(p)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Exists(ctx context.Context, p string) (bool, error) {
	key, err := normalize(p)
	if err != nil {
		return false, err
	}
	_, err = s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}
	return true, nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    strings.TrimPrefix(prefix, "/"),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{Path: obj.Key, Size: obj.Size, ModTime: obj.LastModified})
	}
	return objects, nil
}

func (s *MinioStore) PublicURL(p string) string {
	p = escapePath(strings.TrimPrefix(p, "/"))
	if s.publicURL != "" {
		return s.publicURL + "/" + p
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, p)
}

func (s *MinioStore) SignedURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	key, err := normalize(p)
	if err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}
