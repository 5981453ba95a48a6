// Package webhdfs provides the remote store client used by the stream blocks:
// a minimal, single-attempt contract over a WebHDFS-style stateless HTTP file
// API (status, create, delete, append, ranged read).
package webhdfs

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Status when the remote file does not exist.
// It is the only "expected" failure; everything else is a transport or
// protocol error.
var ErrNotFound = errors.New("remote file not found")

// FileStatus describes a remote file as reported by the store.
type FileStatus struct {
	// Path is the remote file path the status refers to.
	Path string
	// Length is the current file length in bytes.
	Length int64
}

// RemoteStore is the storage-service contract the stream blocks depend on.
//
// All operations are synchronous and single-attempt: implementations must not
// retry internally, so callers can reason about exactly how many remote calls
// a block issues. Read may return fewer bytes than requested; an empty result
// with a nil error means end of file.
type RemoteStore interface {
	// Status queries the remote file. Returns ErrNotFound (possibly wrapped)
	// when the file does not exist.
	Status(ctx context.Context, path string) (FileStatus, error)

	// Create creates the file, empty. With overwrite set, an existing file
	// is replaced.
	Create(ctx context.Context, path string, overwrite bool) error

	// Delete removes the path. With recursive set, a directory path is
	// removed with its contents.
	Delete(ctx context.Context, path string, recursive bool) error

	// Append appends data to the end of the file.
	Append(ctx context.Context, path string, data []byte) error

	// Read returns up to length bytes starting at offset. A short read is
	// valid; an empty slice with nil error signals end of file.
	Read(ctx context.Context, path string, offset int64, length int) ([]byte, error)
}

// StatusError reports a remote operation that completed at the HTTP level but
// returned a status code outside the success set.
type StatusError struct {
	Op   string // remote operation name (CREATE, APPEND, ...)
	Path string // remote file path
	Code int    // HTTP status code
	Body string // response body, truncated
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhdfs %s %s: unexpected status %d: %s", e.Op, e.Path, e.Code, e.Body)
}
