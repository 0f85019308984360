// Package blob abstracts the block substrate that physically persists store
// chunks: a flat key/bytes namespace with three drivers (memory, filesystem,
// S3-compatible). Chunk encoding is the store's concern; persistence
// mechanics live here.
package blob

import (
	"context"
	"errors"
	"fmt"
)

// Driver identifies a concrete substrate implementation.
type Driver string

const (
	// DriverMemory is the in-memory driver, used in tests.
	DriverMemory Driver = "memory"
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 / MinIO compatible driver.
	DriverS3 Driver = "s3"
)

// ErrNotFound is returned by Get for keys that were never put.
var ErrNotFound = errors.New("blob not found")

// Store is the substrate contract the chunked store requires.
type Store interface {
	// Put persists data under key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Has reports whether key exists without fetching its bytes.
	Has(ctx context.Context, key string) (bool, error)

	// List returns all keys under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Driver identifies the backend.
	Driver() Driver
}

// Config selects and parameterizes a driver.
type Config struct {
	Driver Driver `yaml:"driver"`

	// Root is the directory root for the filesystem driver.
	Root string `yaml:"root,omitempty"`

	// S3 settings.
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // optional, for MinIO
}

// Open builds a Store from config.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFilesystem(cfg.Root)
	case DriverS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
