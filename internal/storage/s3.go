package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3 stores objects in a bucket below a key prefix.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3 builds an S3 client from cfg. area is appended to the configured prefix.
func NewS3(ctx context.Context, cfg config.S3Config, area string, logger zerolog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, common.NewValidationError("storage_config.s3.bucket", cfg.Bucket, "bucket is required for the s3 backend")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, common.WrapError(err, "failed to build AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	prefix := strings.Trim(path.Join(strings.Trim(cfg.Prefix, "/"), strings.Trim(area, "/")), "/")
	if prefix == "." {
		prefix = ""
	}

	s3Logger := logger.With().Str("component", "S3Storage").Logger()
	s3Logger.Debug().Str("bucket", cfg.Bucket).Str("prefix", prefix).Msg("S3 storage initialized")

	return &S3{client: client, bucket: cfg.Bucket, prefix: prefix, logger: s3Logger}, nil
}

func buildAWSConfig(ctx context.Context, cfg config.S3Config) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

func (s *S3) objectKey(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return cleaned, nil
	}
	return s.prefix + "/" + cleaned, nil
}

// Put buffers r in memory so the SDK can sign a body of known length.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return 0, err
	}

	buf := common.DefaultBufferPool.Get()
	defer common.DefaultBufferPool.Put(buf)
	bytesRead, err := io.Copy(buf, r)
	if err != nil {
		return bytesRead, common.WrapError(err, "failed to read content")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(buf.Bytes()),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error().Err(err).Str("key", objectKey).Msg("Failed to put object")
		return 0, common.WrapError(err, "failed to put object")
	}

	s.logger.Debug().Str("key", objectKey).Int64("bytes", bytesRead).Msg("Object stored")
	return bytesRead, nil
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, common.WrapErrorf(common.ErrNotFound, "object '%s'", key)
		}
		return nil, common.WrapError(err, "failed to get object")
	}
	return result.Body, nil
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, common.WrapError(err, "failed to head object")
	}
	return true, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFoundError(err) {
		return common.WrapError(err, "failed to delete object")
	}
	return nil
}

func (s *S3) Location(key string) string {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return fmt.Sprintf("s3://%s/%s (invalid key)", s.bucket, key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey)
}

// isNotFoundError checks if an error is a not found error
func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
