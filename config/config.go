// Package config reads the job configuration from the environment, with an
// optional .env file underneath it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/infigaming-com/bpi-log-job/coindesk"
	"github.com/infigaming-com/bpi-log-job/filestore"
	"github.com/infigaming-com/bpi-log-job/rate"
	"github.com/infigaming-com/bpi-log-job/stage"
	"github.com/infigaming-com/bpi-log-job/util"
	"github.com/infigaming-com/bpi-log-job/warehouse"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BlobDriverGCS = "gcs"
	BlobDriverS3  = "s3"

	RateSourceECB    = "ecb"
	RateSourceStatic = "static"
)

type Config struct {
	warehouse.Config   `mapstructure:",squash"`
	filestore.S3Config `mapstructure:",squash"`
	util.RedisConfig   `mapstructure:",squash"`

	LocalTZ               string        `mapstructure:"LOCAL_TZ"`
	ObjectPrefix          string        `mapstructure:"OBJECT_PREFIX"`
	SourceURL             string        `mapstructure:"SOURCE_URL"`
	HTTPTimeout           time.Duration `mapstructure:"HTTP_TIMEOUT"`
	BlobDriver            string        `mapstructure:"BLOB_DRIVER"`
	GoogleCredentialsFile string        `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	RateSource            string        `mapstructure:"RATE_SOURCE"`
	RateURL               string        `mapstructure:"RATE_URL"`
	StaticUSDIDR          string        `mapstructure:"STATIC_USD_IDR"`
	RateCacheTTL          time.Duration `mapstructure:"RATE_CACHE_TTL"`
	LoadEnabled           bool          `mapstructure:"LOAD_ENABLED"`
	OTLPEndpoint          string        `mapstructure:"OTLP_ENDPOINT"`
	OTLPGRPCEndpoint      string        `mapstructure:"OTLP_GRPC_ENDPOINT"`

	// resolved from LocalTZ and StaticUSDIDR
	Location         *time.Location  `mapstructure:"-"`
	StaticUSDIDRRate decimal.Decimal `mapstructure:"-"`
}

var defaults = map[string]any{
	"PROJECT_ID":              "prj-narasio-final",
	"BUCKET_NAME":             "finalprj_data_log",
	"DATASET":                 "dt_narasio_api",
	"TABLE":                   "tbl_log_api",
	"LOCAL_TZ":                "Asia/Jakarta",
	"OBJECT_PREFIX":           stage.DefaultObjectPrefix,
	"SOURCE_URL":              coindesk.DefaultURL,
	"HTTP_TIMEOUT":            "30s",
	"BLOB_DRIVER":             BlobDriverGCS,
	"GOOGLE_CREDENTIALS_FILE": "",
	"S3_ENDPOINT":             "",
	"S3_REGION":               "auto",
	"S3_ACCESS_KEY_ID":        "",
	"S3_SECRET_ACCESS_KEY":    "",
	"S3_USE_PATH_STYLE":       false,
	"RATE_SOURCE":             RateSourceECB,
	"RATE_URL":                rate.DefaultECBURL,
	"STATIC_USD_IDR":          "",
	"RATE_CACHE_TTL":          "1h",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"REDIS_CONNECT_TIMEOUT":   "5s",
	"LOAD_ENABLED":            true,
	"OTLP_ENDPOINT":           "",
	"OTLP_GRPC_ENDPOINT":      "",
}

// Load applies defaults, then envFiles (".env" when none are given, missing
// files are ignored), then the process environment, which always wins.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	loc, err := util.LoadLocation(c.LocalTZ)
	if err != nil {
		return fmt.Errorf("invalid LOCAL_TZ: %w", err)
	}
	c.Location = loc

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	c.BlobDriver = strings.ToLower(c.BlobDriver)
	if c.BlobDriver != BlobDriverGCS && c.BlobDriver != BlobDriverS3 {
		return fmt.Errorf("unsupported BLOB_DRIVER %q", c.BlobDriver)
	}
	if c.Bucket == "" {
		return fmt.Errorf("BUCKET_NAME is required")
	}

	c.RateSource = strings.ToLower(c.RateSource)
	switch c.RateSource {
	case RateSourceECB:
	case RateSourceStatic:
		r, err := util.DecimalFromString(c.StaticUSDIDR)
		if err != nil {
			return fmt.Errorf("invalid STATIC_USD_IDR: %w", err)
		}
		if !r.IsPositive() {
			return fmt.Errorf("STATIC_USD_IDR must be positive, got %s", r)
		}
		c.StaticUSDIDRRate = r
	default:
		return fmt.Errorf("unsupported RATE_SOURCE %q", c.RateSource)
	}

	if c.LoadEnabled && (c.ProjectID == "" || c.Dataset == "" || c.Table == "") {
		return fmt.Errorf("PROJECT_ID, DATASET and TABLE are required when LOAD_ENABLED is set")
	}
	return nil
}
