// Package stage writes a RateSnapshot to blob storage as a one-row CSV object
// ahead of the warehouse load.
package stage

import (
	"context"
	"time"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/filestore"
	"github.com/infigaming-com/bpi-log-job/reports"
	"github.com/infigaming-com/bpi-log-job/snapshot"
	"go.uber.org/zap"
)

const DefaultObjectPrefix = "log_api_"

// ObjectName names the staged object after the calendar date of t in loc,
// e.g. log_api_20221201.csv. Runs on the same local day share one name.
func ObjectName(prefix string, t time.Time, loc *time.Location) string {
	if prefix == "" {
		prefix = DefaultObjectPrefix
	}
	return prefix + t.In(loc).Format("20060102") + ".csv"
}

// Encode renders a header line and one data row.
func Encode(s snapshot.RateSnapshot) ([]byte, error) {
	data, err := reports.GenerateCSV(snapshot.Columns(), [][]string{s.Row()})
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeEncode, "failed to encode snapshot as csv", err)
	}
	return data, nil
}

type Stager struct {
	lg        *zap.Logger
	fileStore filestore.FileStore
}

func NewStager(lg *zap.Logger, fileStore filestore.FileStore) *Stager {
	return &Stager{
		lg:        lg,
		fileStore: fileStore,
	}
}

// Stage uploads the encoded snapshot under objectName, replacing any object
// already stored there.
func (s *Stager) Stage(ctx context.Context, snap *snapshot.RateSnapshot, objectName string) error {
	data, err := Encode(*snap)
	if err != nil {
		return err
	}
	if err := s.fileStore.UploadFileData(ctx, data, filestore.ContentTypeCSV, objectName); err != nil {
		return err
	}
	s.lg.Info("snapshot staged", zap.String("object", objectName), zap.Int("bytes", len(data)))
	return nil
}
