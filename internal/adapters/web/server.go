// Package web serves the dictionary JSON API over HTTP.
// Binds to localhost only: no network exposure, no auth.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/ports"
)

// maxBodyBytes caps request bodies; word-list documents travel in them.
const maxBodyBytes = 16 << 20

// Server serves the JSON API over HTTP.
type Server struct {
	backend  socket.Backend
	listener net.Listener
	httpSrv  *http.Server
	port     int
	started  time.Time
	stopOnce sync.Once

	portFilePath string // .acmatch/run/http.port
}

// NewServer creates an HTTP server over the dictionary service.
// The portFilePath is where the bound port is written for discovery.
func NewServer(backend socket.Backend, portFilePath string) *Server {
	return &Server{
		backend:      backend,
		portFilePath: portFilePath,
		started:      time.Now(),
	}
}

// DefaultPort computes a project-specific port: 19000 + (hash(abs_path) % 1000).
func DefaultPort(projectRoot string) int {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	// Use first 4 bytes as uint32
	n := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return 19000 + int(n%1000)
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/find", s.handleFind)

		r.Route("/dictionaries", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Delete("/", s.handleClear)

			r.Route("/{key}", func(r chi.Router) {
				r.Delete("/", s.handleDelete)
				r.Post("/search", s.handleSearch)
				r.Post("/contains", s.handleContains)
				r.Post("/batch", s.handleBatch)
			})
		})
	})
	return r
}

// Start begins listening on the preferred port. Writes the port to the port file.
func (s *Server) Start(preferredPort int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", preferredPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = time.Now()

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Write port file for discovery
	if s.portFilePath != "" {
		os.WriteFile(s.portFilePath, []byte(fmt.Sprintf("%d", s.port)), 0644)
	}

	go s.httpSrv.Serve(ln)
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// searchBody is the request body of the per-dictionary search endpoints.
type searchBody struct {
	Text    string `json:"text"`
	Bounded bool   `json:"bounded,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type batchBody struct {
	Texts   []string `json:"texts"`
	Bounded bool     `json:"bounded,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	infos, err := s.backend.List()
	if err != nil {
		writeError(w, err)
		return
	}
	resident := 0
	for _, info := range infos {
		if info.Resident {
			resident++
		}
	}
	writeJSON(w, http.StatusOK, socket.HealthResult{
		Status:       "ok",
		Dictionaries: len(infos),
		Resident:     resident,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.backend.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []socket.DictionaryInfo{}
	}
	writeJSON(w, http.StatusOK, socket.ListResult{Dictionaries: infos, Count: len(infos)})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var params socket.CreateParams
	if !decodeBody(w, r, &params) {
		return
	}
	info, err := s.backend.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.backend.Clear()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.ClearResult{Removed: n})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	removed, err := s.backend.Delete(key)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, fmt.Errorf("%w: %s", ports.ErrNotFound, key))
		return
	}
	writeJSON(w, http.StatusOK, socket.DeleteResult{Removed: true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}
	start := time.Now()
	matches, err := s.backend.Search(socket.SearchParams{
		Key:     chi.URLParam(r, "key"),
		Text:    body.Text,
		Bounded: body.Bounded,
		Limit:   body.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult(matches, time.Since(start)))
}

func (s *Server) handleContains(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}
	found, err := s.backend.Contains(socket.SearchParams{
		Key:     chi.URLParam(r, "key"),
		Text:    body.Text,
		Bounded: body.Bounded,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.ContainsResult{Found: found})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchBody
	if !decodeBody(w, r, &body) {
		return
	}
	start := time.Now()
	results, err := s.backend.SearchBatch(r.Context(), socket.BatchParams{
		Key:     chi.URLParam(r, "key"),
		Texts:   body.Texts,
		Bounded: body.Bounded,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.BatchResult{Results: results, Elapsed: time.Since(start).String()})
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	var params socket.FindParams
	if !decodeBody(w, r, &params) {
		return
	}
	start := time.Now()
	matches, err := s.backend.Find(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult(matches, time.Since(start)))
}

func searchResult(matches []ports.Match, elapsed time.Duration) socket.SearchResult {
	if matches == nil {
		matches = []ports.Match{}
	}
	return socket.SearchResult{Matches: matches, Count: len(matches), Elapsed: elapsed.String()}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch socket.ErrorCode(err) {
	case socket.CodeNotFound:
		status = http.StatusNotFound
	case socket.CodeInvalid:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
