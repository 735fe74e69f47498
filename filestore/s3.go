package filestore

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	commonerrors "github.com/infigaming-com/bpi-log-job/errors"
	"go.uber.org/zap"
)

type S3Config struct {
	Endpoint        string `mapstructure:"S3_ENDPOINT"`
	Region          string `mapstructure:"S3_REGION"`
	AccessKeyId     string `mapstructure:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `mapstructure:"S3_USE_PATH_STYLE"`
}

type s3FileStore struct {
	lg     *zap.Logger
	client *s3.Client
	bucket string
}

// NewS3FileStore targets AWS S3 or an S3-compatible store such as R2 when
// Endpoint is set. Empty keys fall back to the default credential chain.
func NewS3FileStore(ctx context.Context, lg *zap.Logger, cfg S3Config, bucket string) (FileStore, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyId != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyId, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, commonerrors.NewError(commonerrors.ErrCodeStorage, "failed to load s3 filestore config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// S3-compatible stores do not all accept the default request checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &s3FileStore{
		lg:     lg,
		client: client,
		bucket: bucket,
	}, nil
}

func (s *s3FileStore) UploadFileData(ctx context.Context, data []byte, contentType, key string) error {
	obj := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if _, err := s.client.PutObject(ctx, obj); err != nil {
		return classifyS3Error(s.bucket, key, err)
	}

	s.lg.Info("uploaded object to s3",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func classifyS3Error(bucket, key string, err error) error {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return commonerrors.NewErrorf(commonerrors.ErrCodeBucketNotFound, err, "s3 bucket %s not found", bucket)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
		return commonerrors.NewErrorf(commonerrors.ErrCodeBucketNotFound, err, "s3 bucket %s not found", bucket)
	}
	return commonerrors.NewErrorf(commonerrors.ErrCodeStorage, err, "failed to upload s3://%s/%s", bucket, key)
}
