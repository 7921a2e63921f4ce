package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// S3API — подмножество клиента S3, которое использует хранилище.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Config — параметры подключения к бакету.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint задаёт S3-совместимый сервер (MinIO, LocalStack); пусто — AWS.
	Endpoint string
	// PublicBaseURL — префикс публичных ссылок на объекты.
	PublicBaseURL string
}

// S3Store хранит изображения товаров в S3.
type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
	logger  *log.Entry
}

// NewS3Client загружает конфигурацию AWS по умолчанию и создаёт клиента.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Store создаёт BlobStore поверх клиента S3.
func NewS3Store(client S3API, cfg S3Config, logger *log.Entry) *S3Store {
	if logger == nil {
		logger = log.WithField("component", "blob-s3")
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: baseURL, logger: logger}
}

// Put загружает объект. Без upsert используется условная запись If-None-Match.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte, upsert bool) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if !upsert {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return "", domain.ErrBlobExists
		}
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return publicURL(s.baseURL, key), nil
}

// Delete удаляет объекты одним запросом.
func (s *S3Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete objects: %w", err)
	}
	if out != nil && len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("delete object %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
	}

	s.logger.WithField("keys", keys).Debug("blob objects deleted")
	return nil
}

var _ domain.BlobStore = (*S3Store)(nil)
