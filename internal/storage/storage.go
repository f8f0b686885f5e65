package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrStorageDisabled = errors.New("storage: object storage is not configured")

// PresignTTL is how long a lot photo URL stays valid.
const PresignTTL = 24 * time.Hour

type Storager interface {
	SaveImage(ctx context.Context, objectKey, contentType string, data []byte) (*minio.UploadInfo, error)
	GetFileUrl(ctx context.Context, objectKey string) (string, error)
	DeleteFile(ctx context.Context, objectKey string) error
}

type MinioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorage(cfg config.MinioConfig) (*MinioStorage, error) {
	if cfg.Endpoint == "" {
		return nil, ErrStorageDisabled
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStorage{
		client: minioClient,
		bucket: cfg.Bucket,
	}, nil
}

func (s *MinioStorage) SaveImage(ctx context.Context, objectKey, contentType string, data []byte) (*minio.UploadInfo, error) {
	// Check if bucket exists, create if not
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	reader := bytes.NewReader(data)
	info, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	slog.Info("Storage Layer: File uploaded", "key", info.Key, "size", info.Size)
	return &info, nil
}

func (s *MinioStorage) DeleteFile(ctx context.Context, objectKey string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (s *MinioStorage) GetFileUrl(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, PresignTTL, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL.String(), nil
}
