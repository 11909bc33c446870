package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corey/percept/internal/domain/percept"
)

// Backend provides the daemon state the handlers read.
// Thread safety is the implementor's responsibility.
type Backend interface {
	// Engine returns the current engine. It may change between calls after
	// a reload; each request uses the engine it fetched for its whole run.
	Engine() *percept.Engine
	Health() HealthResult
	Reload(ctx context.Context) (ReloadResult, error)
}

// reloadTimeout bounds a remote reload; the store fetch dominates.
const reloadTimeout = 2 * time.Minute

// Server is the daemon that listens on a Unix socket and serves analysis requests.
type Server struct {
	backend  Backend
	log      *zap.Logger
	listener net.Listener
	sockPath string

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server backed by the given backend. A nil logger
// disables logging.
func NewServer(backend Backend, sockPath string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		backend:    backend,
		log:        logger.Named("socket"),
		sockPath:   sockPath,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first. If the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		s.log.Info("removing stale socket", zap.String("path", s.sockPath))
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Safe to call more than once, e.g. after a remote shutdown and then a signal.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
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

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Unblock the scanner when the server stops.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-s.done:
			conn.SetReadDeadline(time.Now())
		case <-connDone:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), MaxMessageBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON", Kind: string(percept.KindInvalidInput)})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}

	// The rest of an oversized line cannot be framed, so answer and hang up.
	if err := scanner.Err(); errors.Is(err, bufio.ErrTooLong) {
		s.log.Warn("request line too large", zap.Int("limit_bytes", MaxMessageBytes))
		s.writeResponse(conn, Response{Error: MessageTooLarge, Kind: string(percept.KindInvalidInput)})
	}
}

func (s *Server) handleRequest(req Request) Response {
	start := time.Now()
	var resp Response
	switch req.Method {
	case MethodAnalyze:
		resp = s.handleAnalyze(req)
	case MethodHealth:
		resp = Response{ID: req.ID, Result: s.backend.Health()}
	case MethodStopWords:
		resp = s.handleStopWords(req)
	case MethodSuggest:
		resp = s.handleSuggest(req)
	case MethodReload:
		resp = s.handleReload(req)
	case MethodShutdown:
		resp = Response{ID: req.ID, Result: struct{}{}}
	default:
		resp = Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method), Kind: string(percept.KindNotImplemented)}
	}
	s.log.Debug("request",
		zap.String("id", req.ID),
		zap.String("method", req.Method),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("error", resp.Error))
	return resp
}

// decodeParams re-marshals the generic params into a typed struct.
func decodeParams(raw interface{}, out interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func errorResponse(id string, err error) Response {
	kind := percept.KindOf(err)
	if kind == "" {
		kind = percept.KindDependencyUnavailable
	}
	return Response{ID: id, Error: err.Error(), Kind: string(kind)}
}

func (s *Server) handleAnalyze(req Request) Response {
	var params AnalyzeParams
	if err := decodeParams(req.Params, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid analyze params", Kind: string(percept.KindInvalidInput)}
	}
	set := params.PerceptSet
	if set == "" {
		set = percept.PerceptSetAll
	}

	analysis, err := s.backend.Engine().AnalyzeSet(set, params.Doc)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return Response{ID: req.ID, Result: analysis}
}

func (s *Server) handleStopWords(req Request) Response {
	words := s.backend.Engine().Corpus().StopWords()
	return Response{ID: req.ID, Result: StopWordsResult{Words: words, Length: len(words)}}
}

func (s *Server) handleSuggest(req Request) Response {
	var params SuggestParams
	if err := decodeParams(req.Params, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid suggest params", Kind: string(percept.KindInvalidInput)}
	}
	return Response{ID: req.ID, Result: SuggestResult{
		Suggestions: s.backend.Engine().Suggest(params.Query, params.Limit),
	}}
}

func (s *Server) handleReload(req Request) Response {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	result, err := s.backend.Reload(ctx)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response", zap.String("id", resp.ID), zap.Error(err))
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
