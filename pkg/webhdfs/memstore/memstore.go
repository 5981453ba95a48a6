// Package memstore provides an in-memory RemoteStore implementation for
// tests and local experiments. It records every call so tests can assert on
// the exact sequence of remote operations a block issued.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/mxl-space/gr-hdfs/pkg/webhdfs"
)

// Call records one remote operation.
type Call struct {
	Op     string // STATUS, CREATE, DELETE, APPEND, READ
	Path   string
	Offset int64 // READ only
	Bytes  int   // APPEND: payload length; READ: requested length
}

// Store is an in-memory webhdfs.RemoteStore.
//
// Failure injection: set FailOps to make specific operations return an error,
// either always or starting from the Nth call of that operation.
type Store struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []Call

	// FailOps maps an operation name ("APPEND", "READ", ...) to the 1-based
	// call ordinal at which that operation starts failing. 1 fails every call.
	FailOps map[string]int

	opCount map[string]int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		files:   make(map[string][]byte),
		FailOps: make(map[string]int),
		opCount: make(map[string]int),
	}
}

// Put seeds a remote file with content.
func (s *Store) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
}

// Content returns a copy of the current file content and whether it exists.
func (s *Store) Content(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Calls returns a copy of all recorded calls in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor returns the recorded calls for one operation, in order.
func (s *Store) CallsFor(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ClearFail removes failure injection for an operation. Safe to call while
// a block's worker is running.
func (s *Store) ClearFail(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.FailOps, op)
}

// record appends the call and reports whether this invocation should fail.
func (s *Store) record(c Call) bool {
	s.calls = append(s.calls, c)
	s.opCount[c.Op]++
	from, ok := s.FailOps[c.Op]
	return ok && s.opCount[c.Op] >= from
}

// Status implements webhdfs.RemoteStore.
func (s *Store) Status(ctx context.Context, path string) (webhdfs.FileStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(Call{Op: "STATUS", Path: path}) {
		return webhdfs.FileStatus{}, fmt.Errorf("memstore: injected STATUS failure")
	}
	data, ok := s.files[path]
	if !ok {
		return webhdfs.FileStatus{}, fmt.Errorf("status %s: %w", path, webhdfs.ErrNotFound)
	}
	return webhdfs.FileStatus{Path: path, Length: int64(len(data))}, nil
}

// Create implements webhdfs.RemoteStore.
func (s *Store) Create(ctx context.Context, path string, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(Call{Op: "CREATE", Path: path}) {
		return fmt.Errorf("memstore: injected CREATE failure")
	}
	if _, exists := s.files[path]; exists && !overwrite {
		return &webhdfs.StatusError{Op: "CREATE", Path: path, Code: 403, Body: "file already exists"}
	}
	s.files[path] = nil
	return nil
}

// Delete implements webhdfs.RemoteStore.
func (s *Store) Delete(ctx context.Context, path string, recursive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(Call{Op: "DELETE", Path: path}) {
		return fmt.Errorf("memstore: injected DELETE failure")
	}
	delete(s.files, path)
	return nil
}

// Append implements webhdfs.RemoteStore.
func (s *Store) Append(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(Call{Op: "APPEND", Path: path, Bytes: len(data)}) {
		return fmt.Errorf("memstore: injected APPEND failure")
	}
	if _, ok := s.files[path]; !ok {
		return &webhdfs.StatusError{Op: "APPEND", Path: path, Code: 404, Body: "file does not exist"}
	}
	s.files[path] = append(s.files[path], data...)
	return nil
}

// Read implements webhdfs.RemoteStore.
func (s *Store) Read(ctx context.Context, path string, offset int64, length int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(Call{Op: "READ", Path: path, Offset: offset, Bytes: length}) {
		return nil, fmt.Errorf("memstore: injected READ failure")
	}
	data, ok := s.files[path]
	if !ok {
		return nil, &webhdfs.StatusError{Op: "OPEN", Path: path, Code: 404, Body: "file does not exist"}
	}
	if offset >= int64(len(data)) {
		return nil, nil // EOF
	}
	end := offset + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return append([]byte(nil), data[offset:end]...), nil
}
