package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIOConfig addresses an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinIOStore keeps images in a MinIO (or any S3-compatible) bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	region string
	log    zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

// NewMinIOStore creates the client. The bucket is created lazily on first
// use so the server can start before MinIO is ready.
func NewMinIOStore(cfg MinIOConfig, log zerolog.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket, region: cfg.Region, log: log}, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.log.Info().Str("bucket", s.bucket).Msg("created image bucket")
	}
	s.bucketEnsured = true
	return nil
}

func (s *MinIOStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	key := "homework/" + uuid.NewString() + ext

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	s.log.Debug().Str("key", key).Str("etag", info.ETag).Int("size", len(data)).Msg("image stored")
	return key, nil
}

func (s *MinIOStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, "", err
	}

	stat, err := s.client.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("stat image: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get image: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, stat.ContentType, nil
}

func (s *MinIOStore) Delete(ctx context.Context, ref string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	// RemoveObject succeeds for keys that do not exist.
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	s.log.Debug().Str("key", ref).Msg("image deleted")
	return nil
}
