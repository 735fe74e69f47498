// Package warehouse appends staged CSV objects to the BigQuery table.
package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/snapshot"
	"github.com/infigaming-com/bpi-log-job/util"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Loader ingests one staged object into the destination table.
type Loader interface {
	Load(ctx context.Context, objectName string) error
}

type Config struct {
	ProjectID string `mapstructure:"PROJECT_ID"`
	Bucket    string `mapstructure:"BUCKET_NAME"`
	Dataset   string `mapstructure:"DATASET"`
	Table     string `mapstructure:"TABLE"`
}

type bigQueryLoader struct {
	lg     *zap.Logger
	client *bigquery.Client
	cfg    Config
	schema bigquery.Schema
}

func NewBigQueryLoader(ctx context.Context, lg *zap.Logger, cfg Config, opts ...option.ClientOption) (Loader, func(), error) {
	schema, err := tableSchema()
	if err != nil {
		return nil, nil, err
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, nil, errors.NewError(errors.ErrCodeLoad, "failed to create bigquery client", err)
	}

	return &bigQueryLoader{
			lg:     lg,
			client: client,
			cfg:    cfg,
			schema: schema,
		}, func() {
			if err := client.Close(); err != nil {
				lg.Warn("failed to close bigquery client", zap.Error(err))
			}
		}, nil
}

const loadJobIdPrefix = "bpi_log_"

func sourceURI(bucket, objectName string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, objectName)
}

func tableSchema() (bigquery.Schema, error) {
	columns := snapshot.Schema()
	schema := make(bigquery.Schema, 0, len(columns))
	for _, c := range columns {
		var fieldType bigquery.FieldType
		switch c.Type {
		case snapshot.ColumnString:
			fieldType = bigquery.StringFieldType
		case snapshot.ColumnTimestamp:
			fieldType = bigquery.TimestampFieldType
		case snapshot.ColumnFloat:
			fieldType = bigquery.FloatFieldType
		default:
			return nil, errors.NewErrorf(errors.ErrCodeLoad, nil, "unsupported column type %s for %s", c.Type, c.Name)
		}
		schema = append(schema, &bigquery.FieldSchema{
			Name:     c.Name,
			Type:     fieldType,
			Required: false,
		})
	}
	return schema, nil
}

// newGCSReference describes the staged CSV: one header line, quoted
// newlines allowed, explicit schema.
func newGCSReference(bucket, objectName string, schema bigquery.Schema) *bigquery.GCSReference {
	ref := bigquery.NewGCSReference(sourceURI(bucket, objectName))
	ref.SourceFormat = bigquery.CSV
	ref.SkipLeadingRows = 1
	ref.AllowQuotedNewlines = true
	ref.Schema = schema
	return ref
}

// newLoader prefixes the BigQuery job id with the run id from ctx when present.
func (l *bigQueryLoader) newLoader(ctx context.Context, objectName string) *bigquery.Loader {
	ref := newGCSReference(l.cfg.Bucket, objectName, l.schema)
	loader := l.client.Dataset(l.cfg.Dataset).Table(l.cfg.Table).LoaderFrom(ref)
	loader.WriteDisposition = bigquery.WriteAppend
	loader.CreateDisposition = bigquery.CreateIfNeeded
	if runId, err := util.RunIdFromCtx(ctx); err == nil {
		loader.JobIDConfig = bigquery.JobIDConfig{JobID: loadJobIdPrefix + runId, AddJobIDSuffix: true}
	}
	return loader
}

// Load appends the object's rows and waits for the job to finish. Rows are
// never deduplicated, so reloading an object duplicates its rows.
func (l *bigQueryLoader) Load(ctx context.Context, objectName string) error {
	uri := sourceURI(l.cfg.Bucket, objectName)
	lg := l.lg.With(
		zap.String("source", uri),
		zap.String("table", fmt.Sprintf("%s.%s.%s", l.cfg.ProjectID, l.cfg.Dataset, l.cfg.Table)),
	)

	job, err := l.newLoader(ctx, objectName).Run(ctx)
	if err != nil {
		return errors.NewErrorf(errors.ErrCodeLoad, err, "failed to start load of %s", uri)
	}
	lg = lg.With(zap.String("jobId", job.ID()))
	lg.Info("load job started")

	status, err := job.Wait(ctx)
	if err != nil {
		return errors.NewErrorf(errors.ErrCodeLoad, err, "failed to wait for load of %s", uri)
	}
	if err := status.Err(); err != nil {
		lg.Error("load job failed", zap.Error(err), zap.Any("jobErrors", status.Errors))
		return errors.NewErrorf(errors.ErrCodeLoadJob, err, "load job %s failed", job.ID())
	}

	lg.Info("load job done")
	return nil
}
