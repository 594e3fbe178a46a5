// Package config loads heritagecore settings from defaults, an optional .env
// file and HERITAGECORE_* environment variables.
package config

import (
	"time"

	"heritagecore/internal/blob"
	"heritagecore/internal/core"
	"heritagecore/internal/gate"
	"heritagecore/internal/infra/blob/fs"
	"heritagecore/internal/infra/blob/s3"
	redisstore "heritagecore/internal/infra/persistence/redis"
	"heritagecore/internal/media"
)

// MediaDisabled turns media uploads off.
const MediaDisabled = "none"

// Config is the full runtime configuration.
type Config struct {
	Server    Server    `koanf:"server"`
	Log       Log       `koanf:"log"`
	Storage   Storage   `koanf:"storage"`
	Media     Media     `koanf:"media"`
	Gate      Gate      `koanf:"gate"`
	Auth      Auth      `koanf:"auth"`
	Telemetry Telemetry `koanf:"telemetry"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr              string        `koanf:"addr"                validate:"required"`
	Mode              string        `koanf:"mode"                validate:"oneof=debug release test"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"    validate:"gt=0"`
	MaxDevices        int           `koanf:"max_devices"         validate:"gt=0"`
}

// Log configures the structured logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// Storage selects the durable key-value backend.
type Storage struct {
	Driver        string `koanf:"driver"         validate:"oneof=memory sqlite postgres redis"`
	SQLitePath    string `koanf:"sqlite_path"    validate:"required_if=Driver sqlite"`
	PostgresDSN   string `koanf:"postgres_dsn"   validate:"required_if=Driver postgres"`
	RedisURL      string `koanf:"redis_url"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"       validate:"gte=0"`
	RedisPrefix   string `koanf:"redis_prefix"`
}

// Media selects the object store behind media uploads.
type Media struct {
	Driver            string        `koanf:"driver"               validate:"oneof=fs memory s3 none"`
	Root              string        `koanf:"root"                 validate:"required_if=Driver fs"`
	BaseURL           string        `koanf:"base_url"`
	MaxBytes          int64         `koanf:"max_bytes"            validate:"gt=0"`
	LinkExpiry        time.Duration `koanf:"link_expiry"          validate:"gt=0"`
	S3Bucket          string        `koanf:"s3_bucket"            validate:"required_if=Driver s3"`
	S3Region          string        `koanf:"s3_region"`
	S3Endpoint        string        `koanf:"s3_endpoint"`
	S3AccessKeyID     string        `koanf:"s3_access_key_id"`
	S3SecretAccessKey string        `koanf:"s3_secret_access_key"`
	S3PathStyle       bool          `koanf:"s3_path_style"`
	S3Prefix          string        `koanf:"s3_prefix"`
}

// Gate configures the access challenge.
type Gate struct {
	ErrorDisplay time.Duration `koanf:"error_display" validate:"gt=0"`
}

// Auth configures role assignment.
type Auth struct {
	AdminMarker string `koanf:"admin_marker" validate:"required"`
}

// Metrics exporters and trace outputs.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
	MetricsNone       = "none"

	TraceNone   = "none"
	TraceStdout = "stdout"
	TraceStderr = "stderr"
)

// Telemetry selects the metrics exporter and the trace sink.
type Telemetry struct {
	MetricsExporter string `koanf:"metrics_exporter" validate:"oneof=prometheus expvar none"`
	TraceOutput     string `koanf:"trace_output"     validate:"oneof=none stdout stderr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			Mode:              "release",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxDevices:        core.DefaultMaxDevices,
		},
		Log: Log{Level: "info"},
		Storage: Storage{
			Driver:     string(core.StorageSQLite),
			SQLitePath: "heritagecore.db",
		},
		Media: Media{
			Driver:     string(blob.DriverFilesystem),
			Root:       "media",
			BaseURL:    "/media",
			MaxBytes:   media.DefaultMaxBytes,
			LinkExpiry: media.DefaultLinkExpiry,
		},
		Gate:      Gate{ErrorDisplay: gate.DefaultErrorDisplay},
		Auth:      Auth{AdminMarker: "admin"},
		Telemetry: Telemetry{MetricsExporter: MetricsPrometheus, TraceOutput: TraceNone},
	}
}

// LogConfig converts the log section for core.NewLogger.
func (c Config) LogConfig() core.LogConfig {
	return core.LogConfig{Level: core.LogLevel(c.Log.Level), JSON: c.Log.JSON}
}

// StorageConfig converts the storage section for core.OpenKeyValueStore.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		Redis: redisstore.Options{
			URL:       c.Storage.RedisURL,
			Addr:      c.Storage.RedisAddr,
			Password:  c.Storage.RedisPassword,
			DB:        c.Storage.RedisDB,
			KeyPrefix: c.Storage.RedisPrefix,
		},
	}
}

// MediaEnabled reports whether uploads are configured.
func (c Config) MediaEnabled() bool { return c.Media.Driver != MediaDisabled }

// BlobConfig converts the media section for blob.Open.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Media.Driver),
		FS:     fs.Config{Root: c.Media.Root, BaseURL: c.Media.BaseURL},
		S3: s3.Config{
			Bucket:          c.Media.S3Bucket,
			Region:          c.Media.S3Region,
			Endpoint:        c.Media.S3Endpoint,
			AccessKeyID:     c.Media.S3AccessKeyID,
			SecretAccessKey: c.Media.S3SecretAccessKey,
			PathStyle:       c.Media.S3PathStyle,
			KeyPrefix:       c.Media.S3Prefix,
		},
	}
}

// MediaOptions converts the media limits for media.NewLibrary.
func (c Config) MediaOptions() []media.Option {
	return []media.Option{
		media.WithMaxBytes(c.Media.MaxBytes),
		media.WithLinkExpiry(c.Media.LinkExpiry),
		media.WithURLBase(c.Media.BaseURL),
	}
}
