package blocks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mxl-space/gr-hdfs/internal/bytesize"
	"github.com/mxl-space/gr-hdfs/internal/logger"
	"github.com/mxl-space/gr-hdfs/pkg/sample"
	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
)

// SourceConfig configures a Source block.
type SourceConfig struct {
	// Filename is the remote file name.
	Filename string
	// Folder is the remote folder path.
	Folder string
	// SampleType fixes the item size for sample accounting.
	SampleType sample.Type
	// ChunkSize is the number of bytes requested per ranged read.
	// Default: DefaultTransferSize.
	ChunkSize bytesize.ByteSize
	// PollInterval bounds PullSamples' queue waits. Default: DefaultPollInterval.
	PollInterval time.Duration
}

// Source re-emits a remote file as a continuous stream of typed samples.
//
// A single background reader goroutine issues ranged reads that advance a
// monotonic stream offset; the pipeline thread drains the resulting chunks
// through PullSamples. End of file, or any read failure, permanently ends the
// reader: subsequent pulls drain what is buffered and then return 0 forever.
type Source struct {
	cfg   SourceConfig
	store webhdfs.RemoteStore
	path  string
	log   *slog.Logger

	state  lifecycle
	lifeMu sync.Mutex

	queue *chunkQueue

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	metrics Metrics
}

// NewSource creates a source block. metrics may be nil.
func NewSource(cfg SourceConfig, store webhdfs.RemoteStore, metrics Metrics) (*Source, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("source: filename is required")
	}
	if !cfg.SampleType.Valid() {
		return nil, fmt.Errorf("source: invalid sample type")
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultTransferSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	path := remotePath(cfg.Folder, cfg.Filename)
	return &Source{
		cfg:   cfg,
		store: store,
		path:  path,
		log: logger.With(
			logger.KeyBlock, "hdfs_source",
			logger.KeyBlockID, uuid.NewString()[:8],
			logger.KeyPath, path,
		),
		queue:   newChunkQueue(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		metrics: metrics,
	}, nil
}

// Path returns the remote file path the source reads from.
func (s *Source) Path() string {
	return s.path
}

// State returns the current lifecycle state.
func (s *Source) State() State {
	return s.state.current()
}

// Start verifies the remote file exists and launches the background reader.
// A missing file, or any failure of the status check, is fatal.
func (s *Source) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	switch s.state.current() {
	case StateIdle:
	case StateStopped:
		return ErrStopped
	default:
		return ErrAlreadyStarted
	}

	status, err := s.store.Status(ctx, s.path)
	if err != nil {
		return fmt.Errorf("initializing source: %w", err)
	}

	s.log.Info("starting source",
		logger.KeySampleFmt, s.cfg.SampleType.String(),
		logger.KeyBytes, status.Length,
		"chunk_size", s.cfg.ChunkSize.Bytes())

	s.state.transition(StateIdle, StateRunning)
	go s.reader()
	return nil
}

// reader issues sequential ranged reads until end of file, a read failure,
// or cancellation. The stream offset advances only after a successful read
// and never decreases.
func (s *Source) reader() {
	defer close(s.done)

	var offset int64
	for s.ctx.Err() == nil {
		data, err := s.store.Read(s.ctx, s.path, offset, s.cfg.ChunkSize.Bytes())
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			// No retry policy: a failed read ends the stream for good.
			s.log.Error("read failed, ending stream",
				logger.KeyOffset, offset,
				logger.KeyError, err.Error())
			return
		}
		if len(data) == 0 {
			s.log.Info("end of remote file", logger.KeyOffset, offset)
			return
		}

		s.queue.push(data)
		offset += int64(len(data))
		if s.metrics != nil {
			s.metrics.ChunkRead(len(data))
		}
		s.log.Debug("chunk read",
			logger.KeyBytes, len(data),
			logger.KeyOffset, offset,
			logger.KeyQueueLen, s.queue.len())
	}
}

// PullSamples fills out with sample bytes from the queue and returns the
// number of whole items copied. A short or zero count is a valid result when
// the reader has not produced enough data yet; the pipeline simply calls
// again. Only whole items are ever emitted: trailing partial-item bytes are
// returned to the front of the queue.
func (s *Source) PullSamples(out []byte) int {
	itemSize := s.cfg.SampleType.ItemSize()
	capBytes := len(out) - len(out)%itemSize
	filled := 0

	for filled < capBytes {
		if s.exhausted() {
			break
		}

		chunk, ok := s.queue.pop(s.ctx.Done(), s.cfg.PollInterval)
		if !ok {
			break
		}

		n := len(chunk)
		if n > capBytes-filled {
			n = capBytes - filled
			// Split: the unused tail must be the next chunk consumed.
			s.queue.pushFront(chunk[n:])
		}
		copy(out[filled:], chunk[:n])
		filled += n
	}

	// Item alignment: bytes that do not complete a whole item stay queued.
	if rem := filled % itemSize; rem > 0 {
		tail := append([]byte(nil), out[filled-rem:filled]...)
		s.queue.pushFront(tail)
		filled -= rem
	}

	return filled / itemSize
}

// EndOfStream reports that the reader has terminated and no future pull will
// ever return data. A trailing remainder shorter than one item counts as end
// of stream: it can never complete, so it is never emitted.
func (s *Source) EndOfStream() bool {
	return s.exhausted()
}

func (s *Source) exhausted() bool {
	if s.queue.bytes() >= s.cfg.SampleType.ItemSize() {
		return false
	}
	select {
	case <-s.done:
		return true
	default:
		st := s.state.current()
		return st == StateIdle || st == StateStopped
	}
}

// Stop cancels the reader and blocks until it has fully exited. Stop is
// idempotent and safe to call on a block that was never started.
func (s *Source) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	switch s.state.current() {
	case StateIdle:
		s.state.transition(StateIdle, StateStopped)
		return
	case StateStopRequested, StateStopped:
		return
	}

	s.log.Info("stopping source", logger.KeyQueueLen, s.queue.len())

	s.state.transition(StateRunning, StateStopRequested)
	s.cancel()
	<-s.done
	s.state.transition(StateStopRequested, StateStopped)

	s.log.Info("source stopped")
}
