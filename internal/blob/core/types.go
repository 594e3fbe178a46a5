// Package core defines the object storage contract behind the media library.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies an object storage backend.
type Driver string

// Supported drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Valid reports whether d names a known driver.
func (d Driver) Valid() bool {
	return d == DriverFilesystem || d == DriverS3 || d == DriverMemory
}

// PutOptions carries the optional attributes of a stored object.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// SignedURLOptions configures a time-limited download link.
type SignedURLOptions struct {
	// Expiry defaults to DefaultURLExpiry.
	Expiry time.Duration
}

// DefaultURLExpiry is the lifetime of a presigned link when none is given.
const DefaultURLExpiry = 15 * time.Minute

// Info describes a stored media object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the minimal S3-like surface used by the media library. Keys are
// slash separated and never start with a slash.
type Store interface {
	// Put writes a new object and fails with ErrExists when key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get streams an object. Missing keys return ErrNotFound.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns object metadata. Missing keys return ErrNotFound.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes an object and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns the objects under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a download link or ErrUnsupported.
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// Storage errors shared by every driver.
var (
	ErrUnsupported = errors.New("blob: unsupported operation")
	ErrNotFound    = errors.New("blob: object not found")
	ErrExists      = errors.New("blob: object already exists")
	ErrInvalidKey  = errors.New("blob: invalid key")
)

// CloneMetadata copies a metadata map; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
