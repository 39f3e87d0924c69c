// internal/storage/reports.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"

	"github.com/smartotem/totem-backend/internal/config"
)

// ReportStore keeps exported shift reports.
type ReportStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (*UploadResult, error)
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// New returns an S3 store when credentials are configured and a local
// directory store otherwise.
func New(cfg config.AWSConfig) (ReportStore, error) {
	if cfg.AccessKeyID == "" {
		logrus.WithField("dir", cfg.LocalReportsDir).Info("S3 not configured, exporting reports to local directory")
		return NewLocalStore(cfg.LocalReportsDir, cfg.ReportsPrefix), nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.S3Bucket,
		prefix:   cfg.ReportsPrefix,
	}, nil
}

type S3Store struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

func (s *S3Store) objectKey(key string) string {
	return joinKey(s.prefix, key)
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (*UploadResult, error) {
	objectKey := s.objectKey(key)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:      objectKey,
		Location: out.Location,
		Size:     int64(len(body)),
		MimeType: contentType,
	}, nil
}

// URL presigns a GET for an already prefixed key.
func (s *S3Store) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign report URL: %w", err)
	}
	return url, nil
}

// LocalStore writes reports under a directory for development setups.
type LocalStore struct {
	dir    string
	prefix string
}

func NewLocalStore(dir, prefix string) *LocalStore {
	return &LocalStore{dir: dir, prefix: prefix}
}

func (l *LocalStore) Put(_ context.Context, key string, body []byte, contentType string) (*UploadResult, error) {
	objectKey := joinKey(l.prefix, key)
	target := filepath.Join(l.dir, filepath.FromSlash(objectKey))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &UploadResult{
		Key:      objectKey,
		Location: target,
		Size:     int64(len(body)),
		MimeType: contentType,
	}, nil
}

// URL ignores ttl; local files do not expire.
func (l *LocalStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	target := filepath.Join(l.dir, filepath.FromSlash(key))
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("report %s not found: %w", key, err)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func joinKey(prefix, key string) string {
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(strings.Trim(prefix, "/"), key)
}
