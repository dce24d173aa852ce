package sinks

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config - конфигурация S3 sink. Endpoint задается для MinIO и других
// S3-совместимых хранилищ.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink пишет каждый батч отдельным объектом:
// <prefix>/<table>/<run>/<seq>.jsonl[.zst]
type S3Sink struct {
	up       uploader
	bucket   string
	prefix   string
	compress bool
}

// NewS3Sink загружает AWS конфигурацию (env, shared config) и создает uploader
func NewS3Sink(ctx context.Context, cfg S3Config, compress bool) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return newS3Sink(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, compress), nil
}

func newS3Sink(up uploader, bucket, prefix string, compress bool) *S3Sink {
	return &S3Sink{up: up, bucket: bucket, prefix: prefix, compress: compress}
}

func (s *S3Sink) Name() string { return TypeS3 }

// ObjectKey - ключ объекта для батча
func (s *S3Sink) ObjectKey(b Batch, encoding string) string {
	name := fmt.Sprintf("%06d.jsonl", b.Seq)
	if encoding == EncodingJSONLZstd {
		name += ".zst"
	}
	return path.Join(s.prefix, b.Table, b.RunID, name)
}

func (s *S3Sink) Write(ctx context.Context, b Batch) error {
	p, err := Encode(b.Rows, s.compress)
	if err != nil {
		return err
	}

	key := s.ObjectKey(b, p.Encoding)
	_, err = s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(p.Body),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"table":    b.Table,
			"rows":     fmt.Sprintf("%d", p.Rows),
			"encoding": p.Encoding,
			"checksum": p.Checksum,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Sink) Close() error { return nil }
