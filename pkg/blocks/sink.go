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
	"github.com/mxl-space/gr-hdfs/pkg/bufpool"
	"github.com/mxl-space/gr-hdfs/pkg/sample"
	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
)

// SinkConfig configures a Sink block.
type SinkConfig struct {
	// Filename is the remote file name.
	Filename string
	// Folder is the remote folder path, e.g. "/user/mxl/input".
	Folder string
	// Mode selects append or overwrite behavior for an existing file.
	Mode WriteMode
	// SampleType fixes the item size for sample accounting.
	SampleType sample.Type
	// BufferSize is the flush threshold: whenever at least this many bytes
	// are pending, exactly this many are moved into the transfer queue as one
	// chunk. Default: DefaultTransferSize.
	BufferSize bytesize.ByteSize
	// PollInterval bounds the writer's queue waits. Default: DefaultPollInterval.
	PollInterval time.Duration
}

// Sink persists a continuous stream of typed samples to a remote file.
//
// The pipeline thread calls PushSamples, which only touches the in-memory
// pending buffer and queue; a single background writer goroutine performs all
// APPEND network calls. A failed append is logged and the chunk dropped; the
// block carries no retry policy, so steady-state writes are at-most-once.
type Sink struct {
	cfg   SinkConfig
	store webhdfs.RemoteStore
	path  string
	log   *slog.Logger

	state lifecycle

	// lifeMu serializes Start and Stop against each other.
	lifeMu sync.Mutex

	// mu guards pending. Acquired by the pipeline thread on every push and
	// by Stop for the final flush.
	mu      sync.Mutex
	pending pendingBuffer

	queue *chunkQueue
	pool  *bufpool.Pool

	cancel  chan struct{}
	done    chan struct{}
	metrics Metrics
}

// NewSink creates a sink block. metrics may be nil.
func NewSink(cfg SinkConfig, store webhdfs.RemoteStore, metrics Metrics) (*Sink, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("sink: filename is required")
	}
	if !cfg.SampleType.Valid() {
		return nil, fmt.Errorf("sink: invalid sample type")
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultTransferSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	path := remotePath(cfg.Folder, cfg.Filename)
	return &Sink{
		cfg:   cfg,
		store: store,
		path:  path,
		log: logger.With(
			logger.KeyBlock, "hdfs_sink",
			logger.KeyBlockID, uuid.NewString()[:8],
			logger.KeyPath, path,
		),
		queue:   newChunkQueue(),
		pool:    bufpool.New(cfg.BufferSize.Bytes()),
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
		metrics: metrics,
	}, nil
}

// Path returns the remote file path the sink writes to.
func (s *Sink) Path() string {
	return s.path
}

// State returns the current lifecycle state.
func (s *Sink) State() State {
	return s.state.current()
}

// Start negotiates the remote file state and launches the background writer.
//
// The file is created if missing; an existing file is deleted and recreated
// in overwrite mode, and left untouched in append mode. Any remote failure
// during negotiation is fatal: the error is returned and the block never
// transitions to running.
func (s *Sink) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	switch s.state.current() {
	case StateIdle:
	case StateStopped:
		return ErrStopped
	default:
		return ErrAlreadyStarted
	}

	s.log.Info("starting sink",
		logger.KeySampleFmt, s.cfg.SampleType.String(),
		logger.KeyBytes, s.cfg.BufferSize.Bytes(),
		"mode", s.cfg.Mode.String())

	if err := s.prepareRemote(ctx); err != nil {
		return fmt.Errorf("initializing sink: %w", err)
	}

	s.state.transition(StateIdle, StateRunning)
	go s.writer()
	return nil
}

// prepareRemote brings the remote file into the state writes expect: present,
// and empty when overwriting.
func (s *Sink) prepareRemote(ctx context.Context) error {
	_, err := s.store.Status(ctx, s.path)
	switch {
	case err == nil:
		if s.cfg.Mode == ModeAppend {
			// Existing file, append mode: nothing to do.
			return nil
		}
		s.log.Info("overwrite mode, replacing existing file")
		if err := s.store.Delete(ctx, s.path, true); err != nil {
			return fmt.Errorf("deleting existing file: %w", err)
		}
		if err := s.store.Create(ctx, s.path, true); err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		return nil
	case webhdfs.IsNotFound(err):
		s.log.Info("remote file not found, creating")
		if err := s.store.Create(ctx, s.path, true); err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("checking file status: %w", err)
	}
}

// PushSamples accepts one batch of raw sample bytes from the pipeline thread.
// It always consumes the entire batch and returns the number of whole items
// consumed. It never blocks on network I/O.
func (s *Sink) PushSamples(buf []byte) int {
	if s.state.current() != StateRunning {
		return 0
	}

	threshold := s.cfg.BufferSize.Bytes()

	s.mu.Lock()
	s.pending.append(buf)
	// Watermark flush: every chunk that leaves here before shutdown has
	// length exactly equal to the threshold.
	for s.pending.len() >= threshold {
		chunk := s.pending.take(threshold, s.pool)
		s.queue.push(chunk)
		if s.metrics != nil {
			s.metrics.ChunkEnqueued(len(chunk))
		}
	}
	s.mu.Unlock()

	return len(buf) / s.cfg.SampleType.ItemSize()
}

// writer is the background goroutine draining the queue into APPEND calls.
// It exits only when cancellation has been requested and the queue is empty,
// so every chunk enqueued before cancellation is still written.
func (s *Sink) writer() {
	defer close(s.done)

	for {
		chunk, ok := s.queue.pop(s.cancel, s.cfg.PollInterval)
		if !ok {
			select {
			case <-s.cancel:
				if s.queue.len() == 0 {
					return
				}
			default:
			}
			continue
		}

		s.append(chunk)
		s.pool.Put(chunk)
	}
}

// append issues one APPEND call. Network calls run on a background context:
// cancellation stops the loop, not an in-flight drain.
func (s *Sink) append(chunk []byte) {
	start := time.Now()
	if err := s.store.Append(context.Background(), s.path, chunk); err != nil {
		// No retry policy: the chunk is dropped and the stream goes on.
		s.log.Error("append failed, dropping chunk",
			logger.KeyBytes, len(chunk),
			logger.KeyError, err.Error())
		if s.metrics != nil {
			s.metrics.ChunkDropped(len(chunk))
		}
		return
	}

	s.log.Debug("chunk appended",
		logger.KeyBytes, len(chunk),
		logger.KeyQueueLen, s.queue.len(),
		logger.KeyDurationMs, logger.Duration(start))
	if s.metrics != nil {
		s.metrics.ChunkAppended(len(chunk))
	}
}

// Stop flushes any remaining pending bytes as one final (possibly undersized)
// chunk, signals cancellation, and blocks until the writer has fully exited.
// Stop is idempotent and safe to call on a block that was never started.
func (s *Sink) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	switch s.state.current() {
	case StateIdle:
		s.state.transition(StateIdle, StateStopped)
		return
	case StateStopRequested, StateStopped:
		return
	}

	s.log.Info("stopping sink", logger.KeyQueueLen, s.queue.len())

	// Flush the remainder before raising cancellation so the writer's
	// drain-then-exit loop is guaranteed to see it.
	s.mu.Lock()
	if s.pending.len() > 0 {
		chunk := s.pending.takeAll(s.pool)
		s.queue.push(chunk)
		if s.metrics != nil {
			s.metrics.ChunkEnqueued(len(chunk))
		}
	}
	s.mu.Unlock()

	s.state.transition(StateRunning, StateStopRequested)
	close(s.cancel)
	<-s.done
	s.state.transition(StateStopRequested, StateStopped)

	s.log.Info("sink stopped")
}
