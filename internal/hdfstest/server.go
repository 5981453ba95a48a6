// Package hdfstest implements an in-memory WebHDFS-compatible HTTP server.
//
// It covers exactly the operation subset the remote store client uses
// (GETFILESTATUS, CREATE, DELETE, APPEND, OPEN) and is used both by client
// tests and by the `gr-hdfs mock` development command. It can optionally
// mimic the protocol's two-step namenode→datanode redirect for CREATE and
// APPEND so redirect handling is exercised end to end.
package hdfstest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Server is an in-memory WebHDFS endpoint.
type Server struct {
	mu        sync.Mutex
	files     map[string][]byte
	redirects bool
}

// Option configures a Server.
type Option func(*Server)

// WithRedirects makes CREATE and APPEND answer with a 307 redirect first,
// the way a real namenode hands writes off to a datanode.
func WithRedirects() Option {
	return func(s *Server) { s.redirects = true }
}

// New creates an empty server.
func New(opts ...Option) *Server {
	s := &Server{files: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put seeds a file with content.
func (s *Server) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
}

// Content returns a copy of a file's content and whether it exists.
func (s *Server) Content(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Handler returns the HTTP handler serving the WebHDFS API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/webhdfs/v1", func(r chi.Router) {
		r.Get("/*", s.handleGet)
		r.Put("/*", s.handlePut)
		r.Post("/*", s.handlePost)
		r.Delete("/*", s.handleDelete)
	})
	return r
}

func filePath(r *http.Request) string {
	return "/" + chi.URLParam(r, "*")
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	switch op := r.URL.Query().Get("op"); op {
	case "GETFILESTATUS":
		s.getFileStatus(w, path)
	case "OPEN":
		s.open(w, r, path)
	default:
		writeException(w, http.StatusBadRequest, "UnsupportedOperationException",
			fmt.Sprintf("op=%s is not supported", op))
	}
}

func (s *Server) getFileStatus(w http.ResponseWriter, path string) {
	s.mu.Lock()
	data, ok := s.files[path]
	s.mu.Unlock()

	if !ok {
		writeException(w, http.StatusNotFound, "FileNotFoundException",
			fmt.Sprintf("File does not exist: %s", path))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"FileStatus": map[string]any{
			"length": len(data),
			"type":   "FILE",
		},
	})
}

func (s *Server) open(w http.ResponseWriter, r *http.Request, path string) {
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	length, err := strconv.Atoi(r.URL.Query().Get("length"))
	if err != nil || length < 0 {
		length = 0
	}

	s.mu.Lock()
	data, ok := s.files[path]
	s.mu.Unlock()

	if !ok {
		writeException(w, http.StatusNotFound, "FileNotFoundException",
			fmt.Sprintf("File does not exist: %s", path))
		return
	}

	// Reads at or past the end answer 200 with an empty body, which the
	// client contract treats as end of file.
	if offset >= int64(len(data)) {
		w.WriteHeader(http.StatusOK)
		return
	}
	end := offset + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data[offset:end])
}

// redirectToDatanode mimics the namenode handing the write to a datanode.
// It reports true when the response has been written.
func (s *Server) redirectToDatanode(w http.ResponseWriter, r *http.Request) bool {
	if !s.redirects || r.URL.Query().Get("datanode") == "true" {
		return false
	}
	loc := *r.URL
	q := loc.Query()
	q.Set("datanode", "true")
	loc.RawQuery = q.Encode()
	w.Header().Set("Location", loc.String())
	w.WriteHeader(http.StatusTemporaryRedirect)
	return true
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if op := r.URL.Query().Get("op"); op != "CREATE" {
		writeException(w, http.StatusBadRequest, "UnsupportedOperationException",
			fmt.Sprintf("op=%s is not supported", op))
		return
	}
	if s.redirectToDatanode(w, r) {
		return
	}

	overwrite := r.URL.Query().Get("overwrite") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[path]; exists && !overwrite {
		writeException(w, http.StatusForbidden, "FileAlreadyExistsException",
			fmt.Sprintf("%s already exists", path))
		return
	}
	s.files[path] = nil
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if op := r.URL.Query().Get("op"); op != "APPEND" {
		writeException(w, http.StatusBadRequest, "UnsupportedOperationException",
			fmt.Sprintf("op=%s is not supported", op))
		return
	}
	if s.redirectToDatanode(w, r) {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeException(w, http.StatusInternalServerError, "IOException", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[path]; !exists {
		writeException(w, http.StatusNotFound, "FileNotFoundException",
			fmt.Sprintf("File does not exist: %s", path))
		return
	}
	s.files[path] = append(s.files[path], body...)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if op := r.URL.Query().Get("op"); op != "DELETE" {
		writeException(w, http.StatusBadRequest, "UnsupportedOperationException",
			fmt.Sprintf("op=%s is not supported", op))
		return
	}

	s.mu.Lock()
	_, existed := s.files[path]
	delete(s.files, path)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"boolean": existed})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// writeException emits a WebHDFS RemoteException body.
func writeException(w http.ResponseWriter, code int, exception, message string) {
	writeJSON(w, code, map[string]any{
		"RemoteException": map[string]any{
			"exception": exception,
			"message":   message,
		},
	})
}
