package filestore

import (
	"context"
)

const ContentTypeCSV = "text/csv"

// FileStore writes whole objects. Uploading to an existing key replaces it.
type FileStore interface {
	UploadFileData(ctx context.Context, data []byte, contentType, key string) error
}
