// Package blob exposes the media object storage contract and opens the
// configured driver.
package blob

import "heritagecore/internal/blob/core"

type (
	// Driver identifies a storage backend.
	Driver = core.Driver
	// PutOptions configures an object write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures link signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes a stored object.
	Info = core.Info
	// Store is implemented by every driver.
	Store = core.Store
)

// Drivers.
const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// Errors returned by every driver.
var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrInvalidKey  = core.ErrInvalidKey
)
