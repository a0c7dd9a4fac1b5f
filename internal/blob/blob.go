// Package blob re-exports the blob storage abstraction and builds the
// configured backend.
package blob

import (
	"context"
	"fmt"

	"panicconf/internal/blob/core"
	"panicconf/internal/infra/blob/fs"
	"panicconf/internal/infra/blob/memory"
	"panicconf/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// Options selects and configures a blob backend.
type Options struct {
	Driver Driver
	FSRoot string
	S3     s3.Config
}

// Open builds the selected blob backend. S3 credentials not present in
// the options are resolved from the ambient AWS environment.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFilesystem:
		return fs.New(opts.FSRoot)
	case DriverS3:
		return s3.New(ctx, opts.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", opts.Driver)
	}
}
