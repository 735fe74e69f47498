package filestore

import (
	"context"
	"errors"
	"net/http"

	"cloud.google.com/go/storage"
	commonerrors "github.com/infigaming-com/bpi-log-job/errors"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type gcsFileStore struct {
	lg     *zap.Logger
	client *storage.Client
	bucket string
}

// NewGCSFileStore opens a Cloud Storage client. Without options the client
// uses application default credentials.
func NewGCSFileStore(ctx context.Context, lg *zap.Logger, bucket string, opts ...option.ClientOption) (FileStore, func(), error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, commonerrors.NewError(commonerrors.ErrCodeStorage, "failed to create gcs client", err)
	}
	return &gcsFileStore{
			lg:     lg,
			client: client,
			bucket: bucket,
		}, func() {
			if err := client.Close(); err != nil {
				lg.Warn("failed to close gcs client", zap.Error(err))
			}
		}, nil
}

func (s *gcsFileStore) UploadFileData(ctx context.Context, data []byte, contentType, key string) error {
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(writeCtx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		// cancelling the context aborts the upload
		cancel()
		_ = w.Close()
		return classifyGCSError(s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return classifyGCSError(s.bucket, key, err)
	}

	s.lg.Info("uploaded object to gcs",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func classifyGCSError(bucket, key string, err error) error {
	if errors.Is(err, storage.ErrBucketNotExist) {
		return commonerrors.NewErrorf(commonerrors.ErrCodeBucketNotFound, err, "gcs bucket %s not found", bucket)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return commonerrors.NewErrorf(commonerrors.ErrCodeBucketNotFound, err, "gcs bucket %s not found", bucket)
		case http.StatusUnauthorized, http.StatusForbidden:
			return commonerrors.NewErrorf(commonerrors.ErrCodeStorage, err, "not authorized to write gs://%s/%s", bucket, key)
		}
	}
	return commonerrors.NewErrorf(commonerrors.ErrCodeStorage, err, "failed to upload gs://%s/%s", bucket, key)
}
