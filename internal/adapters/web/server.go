// Package web serves the percept JSON API over HTTP: document analysis and the
// corpus views (frequency and member distributions, stop words, name table).
// Binds to localhost by default; there is no auth.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/domain/percept"
)

// maxDocBytes bounds an analyze request body.
const maxDocBytes = 8 << 20

// dateLayout matches the millisecond UTC timestamp callers already parse.
const dateLayout = "2006-01-02 15:04:05.000"

// Backend is the daemon state the HTTP handlers read. socket.Backend
// satisfies it.
type Backend interface {
	Engine() *percept.Engine
	Health() socket.HealthResult
}

// Server serves the JSON API over HTTP.
type Server struct {
	backend  Backend
	log      *zap.Logger
	listener net.Listener
	httpSrv  *http.Server
	stopOnce sync.Once
	now      func() time.Time
}

// NewServer creates an HTTP server for the API. A nil logger disables logging.
func NewServer(backend Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		backend: backend,
		log:     logger.Named("http"),
		now:     time.Now,
	}
}

// DefaultPort computes a config-specific port: 19000 + (hash(abs_path) % 1000).
func DefaultPort(configPath string) int {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	h := sha256.Sum256([]byte(abs))
	// Use first 4 bytes as uint32
	n := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return 19000 + int(n%1000)
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /freqdist/{$}", s.handleFrequencyDistribution)
	mux.HandleFunc("GET /freqdist/bucketed/{$}", s.handleBucketedFrequency)
	mux.HandleFunc("GET /freqdist/stopwords/{$}", s.handleStopWords)
	mux.HandleFunc("GET /memberdist/{$}", s.handleMemberDistribution)
	mux.HandleFunc("GET /memberdist/bucketed/{$}", s.handleBucketedMembers)
	mux.HandleFunc("GET /commonsetnamelist/{$}", s.handleNameTable)
	mux.HandleFunc("GET /memberlist/{$}", s.handleMemberList)
	mux.HandleFunc("GET /percepts/suggest", s.handleSuggest)
	mux.HandleFunc("POST /{percept_set}/{$}", s.handleAnalyze)
	return mux
}

// Start begins listening on addr ("host:port"; port 0 picks a free one).
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve", zap.Error(err))
		}
	}()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
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
	})
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

type analyzeRequest struct {
	Doc string `json:"doc"`
}

type analyzeResponse struct {
	Doc            string                  `json:"doc"`
	Status         percept.Status          `json:"status"`
	Percepts       []percept.ScoredPercept `json:"percept_set"`
	PerceptsFound  int                     `json:"percepts_found"`
	DocumentLength int                     `json:"document_length"`
	Date           []string                `json:"date"`
	RequestID      string                  `json:"request_id"`
}

type messageResponse struct {
	Status    percept.Status `json:"status"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      percept.StatusOK,
		"service":     "percept",
		"percept_set": []string{percept.PerceptSetAll},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Health())
}

func (s *Server) handleFrequencyDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                 percept.StatusOK,
		"frequency_distribution": s.backend.Engine().Corpus().FrequencyDistribution(),
	})
}

func (s *Server) handleBucketedFrequency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                 percept.StatusOK,
		"frequency_distribution": s.backend.Engine().Corpus().BucketedFrequencyDistribution(),
	})
}

func (s *Server) handleStopWords(w http.ResponseWriter, r *http.Request) {
	words := s.backend.Engine().Corpus().StopWords()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                    percept.StatusOK,
		"percept_stop_words":        words,
		"length_percept_stop_words": len(words),
	})
}

func (s *Server) handleMemberDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              percept.StatusOK,
		"member_distribution": s.backend.Engine().Corpus().MemberDistribution(),
	})
}

func (s *Server) handleBucketedMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              percept.StatusOK,
		"member_distribution": s.backend.Engine().Corpus().BucketedMemberDistribution(),
	})
}

func (s *Server) handleNameTable(w http.ResponseWriter, r *http.Request) {
	names := s.backend.Engine().Corpus().NameTable()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       percept.StatusOK,
		"percepts":     names,
		"len_percepts": len(names),
	})
}

func (s *Server) handleMemberList(w http.ResponseWriter, r *http.Request) {
	list := s.backend.Engine().Corpus().MemberList()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             percept.StatusOK,
		"member_list":        list,
		"member_list_length": len(list),
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{
			Status: percept.StatusInvalidInput, Message: "query parameter q is required",
		})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, messageResponse{
				Status: percept.StatusInvalidInput, Message: "limit must be a non-negative integer",
			})
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      percept.StatusOK,
		"suggestions": s.backend.Engine().Suggest(q, limit),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	set := r.PathValue("percept_set")

	var req analyzeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{
			Status: percept.StatusInvalidInput, Message: "could not read request body", RequestID: requestID,
		})
		return
	}
	if len(body) > maxDocBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, messageResponse{
			Status: percept.StatusInvalidInput, Message: "document too large", RequestID: requestID,
		})
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, messageResponse{
				Status: percept.StatusInvalidInput, Message: "request body must be JSON with a doc field", RequestID: requestID,
			})
			return
		}
	}

	start := s.now()
	analysis, err := s.backend.Engine().AnalyzeSet(set, req.Doc)
	if err != nil {
		status, code, msg := statusForError(err)
		s.log.Info("analyze rejected",
			zap.String("request_id", requestID),
			zap.String("percept_set", set),
			zap.String("status", string(status)),
			zap.Error(err))
		writeJSON(w, code, messageResponse{Status: status, Message: msg, RequestID: requestID})
		return
	}
	if analysis.Status != percept.StatusOK {
		writeJSON(w, http.StatusOK, messageResponse{
			Status: analysis.Status, Message: analysis.Message, RequestID: requestID,
		})
		return
	}

	s.log.Debug("analyze",
		zap.String("request_id", requestID),
		zap.Int("document_length", analysis.DocumentLength),
		zap.Int("percepts_found", analysis.PerceptsFound),
		zap.Int("dropped", analysis.Dropped),
		zap.Duration("elapsed", s.now().Sub(start)))

	writeJSON(w, http.StatusOK, analyzeResponse{
		Doc:            req.Doc,
		Status:         analysis.Status,
		Percepts:       analysis.Percepts,
		PerceptsFound:  analysis.PerceptsFound,
		DocumentLength: analysis.DocumentLength,
		Date:           []string{start.UTC().Format(dateLayout)},
		RequestID:      requestID,
	})
}

// statusForError maps an engine error to the response status, HTTP code and
// caller-facing message.
func statusForError(err error) (percept.Status, int, string) {
	switch percept.StatusFor(err) {
	case percept.StatusInvalidInput:
		if errors.Is(err, percept.ErrEmptyDocument) {
			return percept.StatusInvalidInput, http.StatusBadRequest, percept.MessageMissingDocument
		}
		return percept.StatusInvalidInput, http.StatusBadRequest, err.Error()
	case percept.StatusNotImplemented:
		return percept.StatusNotImplemented, http.StatusOK, percept.MessageNotImplemented
	default:
		return percept.StatusUnavailable, http.StatusServiceUnavailable, "percept dictionary unavailable"
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
