package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FileService stores contract artifacts in MinIO: signature images and
// contract attachments. Contracts hold object keys, never blobs.
type FileService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewFileService(cfg *config.MinioConfig) (*FileService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &FileService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *FileService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// UploadSignature stores a signature image for one party of a contract and
// returns the object key recorded on the contract.
func (s *FileService) UploadSignature(ctx context.Context, contractID, role string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("signatures/%s/%s-%d.png", contractID, role, time.Now().UnixNano())
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload signature: %w", err)
	}

	return objectName, nil
}

// UploadAttachment stores a supporting document under the contract's prefix.
func (s *FileService) UploadAttachment(ctx context.Context, contractID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("attachments/%s/%s", contractID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return objectName, nil
}

// PresignedURL generates a download URL for the object with expiration
func (s *FileService) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteObject removes an object from the bucket
func (s *FileService) DeleteObject(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}
