package blob

import (
	"context"
	"fmt"

	"heritagecore/internal/infra/blob/fs"
	"heritagecore/internal/infra/blob/memory"
	"heritagecore/internal/infra/blob/s3"
)

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FS     fs.Config
	S3     s3.Config
}

// Open returns the store for cfg.Driver, defaulting to the filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fs.New(cfg.FS)
	case DriverMemory:
		return memory.New(), nil
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
