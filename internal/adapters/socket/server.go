package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/corey/acmatch/internal/ports"
)

// Backend is the dictionary service the server exposes.
// Thread safety is the implementor's responsibility.
type Backend interface {
	Create(ctx context.Context, p CreateParams) (DictionaryInfo, error)
	Delete(key string) (bool, error)
	Clear() (int, error)
	List() ([]DictionaryInfo, error)
	Search(p SearchParams) ([]ports.Match, error)
	SearchBatch(ctx context.Context, p BatchParams) ([][]ports.Match, error)
	Contains(p SearchParams) (bool, error)
	Find(p FindParams) ([]ports.Match, error)
}

// MaxMessageSize bounds one request line.
const MaxMessageSize = 16 * 1024 * 1024

// Server is the daemon that listens on a Unix socket and serves dictionary
// requests.
type Server struct {
	backend  Backend
	listener net.Listener
	sockPath string
	started  time.Time

	ctx    context.Context // cancelled by Stop; bounds long-running requests
	cancel context.CancelFunc

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server backed by the given dictionary service.
func NewServer(backend Backend, sockPath string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		backend:    backend,
		sockPath:   sockPath,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first; if the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket, remove it
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent: safe to call after a remote shutdown followed by a signal.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received. The daemon's main goroutine should select on this alongside
// OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

// Accept retry backoff bounds, for errors such as EMFILE that persist until
// connections are released.
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(2*backoff, maxAcceptBackoff)
			}
			log.Printf("[socket] accept: %v; retrying in %v", err, backoff)
			select {
			case <-s.done:
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Unblock the read below when the server stops.
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-s.done:
			conn.Close()
		case <-finished:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), MaxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON", Code: CodeInvalid})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
	if errors.Is(scanner.Err(), bufio.ErrTooLong) {
		s.writeResponse(conn, Response{
			Error: fmt.Sprintf("request exceeds %d bytes", MaxMessageSize),
			Code:  CodeInvalid,
		})
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodCreate:
		return s.handleCreate(req)
	case MethodDelete:
		return s.handleDelete(req)
	case MethodClear:
		return s.handleClear(req)
	case MethodList:
		return s.handleList(req)
	case MethodSearch:
		return s.handleSearch(req)
	case MethodSearchBatch:
		return s.handleSearchBatch(req)
	case MethodContains:
		return s.handleContains(req)
	case MethodFind:
		return s.handleFind(req)
	case MethodHealth:
		return s.handleHealth(req)
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method), Code: CodeInvalid}
	}
}

// decodeParams re-marshals the generic params into a typed struct.
func decodeParams(req Request, v any) error {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}
	return json.Unmarshal(paramsJSON, v)
}

func invalidParams(req Request) Response {
	return Response{ID: req.ID, Error: fmt.Sprintf("invalid %s params", req.Method), Code: CodeInvalid}
}

func errorResponse(req Request, err error) Response {
	code := ErrorCode(err)
	if code == CodeInternal {
		log.Printf("[socket] %s: %v", req.Method, err)
	}
	return Response{ID: req.ID, Error: err.Error(), Code: code}
}

func (s *Server) handleCreate(req Request) Response {
	var params CreateParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams(req)
	}
	info, err := s.backend.Create(s.ctx, params)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: info}
}

func (s *Server) handleDelete(req Request) Response {
	var params KeyParams
	if err := decodeParams(req, &params); err != nil || params.Key == "" {
		return invalidParams(req)
	}
	removed, err := s.backend.Delete(params.Key)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: DeleteResult{Removed: removed}}
}

func (s *Server) handleClear(req Request) Response {
	n, err := s.backend.Clear()
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: ClearResult{Removed: n}}
}

func (s *Server) handleList(req Request) Response {
	infos, err := s.backend.List()
	if err != nil {
		return errorResponse(req, err)
	}
	if infos == nil {
		infos = []DictionaryInfo{}
	}
	return Response{ID: req.ID, Result: ListResult{Dictionaries: infos, Count: len(infos)}}
}

func (s *Server) handleSearch(req Request) Response {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil || params.Key == "" {
		return invalidParams(req)
	}

	start := time.Now()
	matches, err := s.backend.Search(params)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: newSearchResult(matches, time.Since(start))}
}

func (s *Server) handleSearchBatch(req Request) Response {
	var params BatchParams
	if err := decodeParams(req, &params); err != nil || params.Key == "" {
		return invalidParams(req)
	}

	start := time.Now()
	results, err := s.backend.SearchBatch(s.ctx, params)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: BatchResult{Results: results, Elapsed: time.Since(start).String()}}
}

func (s *Server) handleContains(req Request) Response {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil || params.Key == "" {
		return invalidParams(req)
	}
	found, err := s.backend.Contains(params)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: ContainsResult{Found: found}}
}

func (s *Server) handleFind(req Request) Response {
	var params FindParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams(req)
	}

	start := time.Now()
	matches, err := s.backend.Find(params)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: newSearchResult(matches, time.Since(start))}
}

func (s *Server) handleHealth(req Request) Response {
	infos, err := s.backend.List()
	if err != nil {
		return errorResponse(req, err)
	}
	resident := 0
	for _, info := range infos {
		if info.Resident {
			resident++
		}
	}
	return Response{
		ID: req.ID,
		Result: HealthResult{
			Status:       "ok",
			Dictionaries: len(infos),
			Resident:     resident,
			Uptime:       time.Since(s.started).Round(time.Second).String(),
		},
	}
}

func newSearchResult(matches []ports.Match, elapsed time.Duration) SearchResult {
	if matches == nil {
		matches = []ports.Match{}
	}
	return SearchResult{Matches: matches, Count: len(matches), Elapsed: elapsed.String()}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
