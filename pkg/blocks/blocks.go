// Package blocks implements the two stream blocks bridging a fixed-rate
// sample pipeline to a remote WebHDFS-style file store: a Sink that persists
// a pushed sample stream to a remote file, and a Source that re-emits a
// remote file as a sample stream.
//
// Both blocks share the same shape: the pipeline thread only ever touches
// in-memory state (a lock-guarded pending buffer, a FIFO chunk queue), while
// a single background goroutine per block performs all blocking network
// calls. Stop blocks until that goroutine has fully exited.
package blocks

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mxl-space/gr-hdfs/internal/bytesize"
)

// DefaultTransferSize is the default buffer/chunk size for both blocks.
const DefaultTransferSize = 128 * bytesize.MiB

// DefaultPollInterval bounds waits on the chunk queue. It only exists to keep
// waiters responsive to cancellation; correctness never depends on it.
const DefaultPollInterval = time.Second

var (
	// ErrAlreadyStarted is returned by Start on a block that is not idle.
	ErrAlreadyStarted = errors.New("block already started")

	// ErrStopped is returned by Start on a block that has already stopped.
	// A block's lifecycle is one-way; create a new instance to run again.
	ErrStopped = errors.New("block already stopped")
)

// WriteMode selects how a sink treats an existing remote file.
type WriteMode int

const (
	// ModeAppend keeps the existing file and appends to it.
	ModeAppend WriteMode = iota
	// ModeOverwrite deletes any existing file and starts fresh.
	ModeOverwrite
)

func (m WriteMode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("blocks.WriteMode(%d)", int(m))
	}
}

// ParseWriteMode maps a configuration value to a WriteMode. The legacy
// capitalized flowgraph values ("Append", "Overwrite") are accepted.
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(s) {
	case "append":
		return ModeAppend, nil
	case "overwrite":
		return ModeOverwrite, nil
	default:
		return 0, fmt.Errorf("unknown write mode: %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *WriteMode) UnmarshalText(text []byte) error {
	mode, err := ParseWriteMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m WriteMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// remotePath joins folder and filename into the remote file path, normalized
// to forward slashes with a leading slash.
func remotePath(folder, filename string) string {
	p := path.Join("/", strings.ReplaceAll(folder, "\\", "/"), filename)
	return p
}

// Metrics observes block transfer activity. Implementations must be safe for
// concurrent use. All blocks accept a nil Metrics, which disables observation.
type Metrics interface {
	// ChunkEnqueued records a chunk handed to the transfer queue.
	ChunkEnqueued(bytes int)
	// ChunkAppended records a chunk successfully appended to the remote file.
	ChunkAppended(bytes int)
	// ChunkDropped records a chunk discarded after a failed append.
	ChunkDropped(bytes int)
	// ChunkRead records a chunk successfully read from the remote file.
	ChunkRead(bytes int)
}
