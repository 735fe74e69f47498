package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coocood/freecache"
	"github.com/infigaming-com/bpi-log-job/cache"
	"github.com/infigaming-com/bpi-log-job/coindesk"
	"github.com/infigaming-com/bpi-log-job/config"
	"github.com/infigaming-com/bpi-log-job/filestore"
	"github.com/infigaming-com/bpi-log-job/observability/metrics"
	"github.com/infigaming-com/bpi-log-job/pipeline"
	"github.com/infigaming-com/bpi-log-job/rate"
	"github.com/infigaming-com/bpi-log-job/snapshot"
	"github.com/infigaming-com/bpi-log-job/stage"
	"github.com/infigaming-com/bpi-log-job/util"
	"github.com/infigaming-com/bpi-log-job/warehouse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	serviceName        = "bpi-log-job"
	freeCacheSize      = 1024 * 1024
	rateCacheKeyPrefix = "bpi:"
)

func main() {
	once := flag.Bool("once", false, "run the job once and exit instead of scheduling it hourly")
	envFile := flag.String("env-file", "", "optional .env file, defaults to ./.env")
	flag.Parse()

	lg, flush := util.NewLogger(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, lg, *once, *envFile)
	stop()
	if err != nil {
		lg.Error("bpi log job failed", zap.Error(err))
		flush()
		os.Exit(1)
	}
	flush()
}

func run(ctx context.Context, lg *zap.Logger, once bool, envFile string) error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	var googleOpts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}

	httpClient := &http.Client{}
	defer httpClient.CloseIdleConnections()

	provider, closeProvider, err := newRateProvider(ctx, lg, cfg, httpClient)
	if err != nil {
		return err
	}
	defer closeProvider()

	fileStore, closeFileStore, err := newFileStore(ctx, lg, cfg, googleOpts)
	if err != nil {
		return err
	}
	defer closeFileStore()

	jobOpts := []pipeline.JobOption{}
	var loader warehouse.Loader
	if cfg.LoadEnabled {
		bqLoader, closeLoader, err := warehouse.NewBigQueryLoader(ctx, lg.Named("warehouse"), cfg.Config, googleOpts...)
		if err != nil {
			return err
		}
		defer closeLoader()
		loader = bqLoader
	} else {
		lg.Info("warehouse load disabled")
		jobOpts = append(jobOpts, pipeline.WithLoadDisabled())
	}

	if cfg.OTLPEndpoint != "" || cfg.OTLPGRPCEndpoint != "" {
		exporter, shutdown, err := metrics.NewMetricExporter(ctx,
			metrics.WithServiceName(serviceName),
			metrics.WithOTLPEndpoint(cfg.OTLPEndpoint),
			metrics.WithOTLPGRPCEndpoint(cfg.OTLPGRPCEndpoint),
		)
		if err != nil {
			return err
		}
		defer shutdown()
		jobOpts = append(jobOpts, pipeline.WithMetricsRecorder(exporter))
	}

	job := pipeline.NewJob(
		lg.Named("pipeline"),
		pipeline.JobConfig{
			ObjectPrefix: cfg.ObjectPrefix,
			Location:     cfg.Location,
		},
		coindesk.NewClient(lg.Named("coindesk"), cfg.SourceURL, cfg.HTTPTimeout, httpClient),
		snapshot.NewTransformer(lg.Named("transform"), provider, cfg.Location),
		stage.NewStager(lg.Named("stage"), fileStore),
		loader,
		jobOpts...,
	)

	if once {
		return job.Run(ctx)
	}
	return pipeline.NewScheduler(lg.Named("scheduler"), job, cfg.Location).Start(ctx)
}

func newRateProvider(ctx context.Context, lg *zap.Logger, cfg *config.Config, httpClient *http.Client) (rate.RateProvider, func(), error) {
	var inner rate.RateProvider
	switch cfg.RateSource {
	case config.RateSourceStatic:
		inner = rate.NewStaticRateProvider(map[string]decimal.Decimal{
			"USD/IDR": cfg.StaticUSDIDRRate,
		})
		return inner, func() {}, nil
	default:
		inner = rate.NewECBRateProvider(lg.Named("ecb"), cfg.RateURL, cfg.HTTPTimeout, httpClient)
	}

	if cfg.RedisConfig.Addr == "" {
		c := cache.NewFreeCache(freecache.NewCache(freeCacheSize))
		return rate.NewCachedRateProvider(lg.Named("rate"), inner, c, cfg.RateCacheTTL), func() {}, nil
	}

	redisClient, err := util.NewRedisClient(ctx, cfg.RedisConfig)
	if err != nil {
		return nil, nil, err
	}
	c := cache.NewRedisCache(lg.Named("cache"), redisClient, rateCacheKeyPrefix)
	return rate.NewCachedRateProvider(lg.Named("rate"), inner, c, cfg.RateCacheTTL), func() {
		if err := redisClient.Close(); err != nil {
			lg.Warn("failed to close redis client", zap.Error(err))
		}
	}, nil
}

func newFileStore(ctx context.Context, lg *zap.Logger, cfg *config.Config, googleOpts []option.ClientOption) (filestore.FileStore, func(), error) {
	switch cfg.BlobDriver {
	case config.BlobDriverS3:
		fs, err := filestore.NewS3FileStore(ctx, lg.Named("filestore"), cfg.S3Config, cfg.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case config.BlobDriverGCS:
		return filestore.NewGCSFileStore(ctx, lg.Named("filestore"), cfg.Bucket, googleOpts...)
	default:
		return nil, nil, fmt.Errorf("unsupported blob driver %q", cfg.BlobDriver)
	}
}
