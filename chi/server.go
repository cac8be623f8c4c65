// Package chi provides an HTTP API for statement extraction built on the
// chi router. Clients post a filing and receive the statements found as JSON.
package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/finstmt"
	"github.com/fwojciec/finstmt/extract"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodyBytes is the default limit on the size of a posted filing.
const DefaultMaxBodyBytes = 64 << 20

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	parser       finstmt.DocumentParser
	logger       *slog.Logger
	concurrency  int
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithConcurrency sets the number of tables processed at once per request.
func WithConcurrency(n int) Option {
	return func(s *Server) {
		s.concurrency = n
	}
}

// WithMaxBodyBytes sets the largest filing accepted.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// NewServer creates and configures the HTTP server.
func NewServer(parser finstmt.DocumentParser, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		parser:       parser,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	r.Post("/extract", s.handleExtract)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// StatementResponse is one statement found in a filing.
type StatementResponse struct {
	Kind       finstmt.Kind   `json:"kind"`
	Identity   string         `json:"identity"`
	Index      int            `json:"index"`
	Candidates int            `json:"candidates"`
	Table      *finstmt.Table `json:"table"`
}

// FaultResponse is a table that could not be processed.
type FaultResponse struct {
	Index    int    `json:"index"`
	Identity string `json:"identity"`
	Error    string `json:"error"`
}

// ExtractResponse is the body returned by POST /extract.
type ExtractResponse struct {
	Scanned    int                 `json:"scanned"`
	Statements []StatementResponse `json:"statements"`
	Missing    []finstmt.Kind      `json:"missing"`
	Faults     []FaultResponse     `json:"faults"`
}

// handleExtract classifies the tables of the filing in the request body.
// The policy query parameter selects among competing tables.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	policy, err := finstmt.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		jsonError(w, finstmt.ErrorMessage(err), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, "filing exceeds max size", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read filing", http.StatusBadRequest)
		return
	}

	fragments, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		jsonError(w, finstmt.ErrorMessage(err), http.StatusUnprocessableEntity)
		return
	}

	extractor := &extract.Extractor{
		Policy:      policy,
		Concurrency: s.concurrency,
	}
	result, err := extractor.Process(r.Context(), fragments, nil)
	if err != nil {
		jsonError(w, "extraction canceled", http.StatusServiceUnavailable)
		return
	}

	resp := ExtractResponse{
		Scanned:    result.Scanned,
		Statements: []StatementResponse{},
		Missing:    []finstmt.Kind{},
		Faults:     []FaultResponse{},
	}
	for _, summary := range result.Summary() {
		m, ok := result.Selected(summary.Kind, policy)
		if !ok {
			resp.Missing = append(resp.Missing, summary.Kind)
			continue
		}
		resp.Statements = append(resp.Statements, StatementResponse{
			Kind:       m.Kind,
			Identity:   m.Identity,
			Index:      m.Index,
			Candidates: summary.Matches,
			Table:      m.Table,
		})
	}
	for _, f := range result.Faults {
		s.logger.Warn("table skipped",
			"index", f.Index,
			"identity", f.Identity,
			"err", f.Err,
		)
		resp.Faults = append(resp.Faults, FaultResponse{
			Index:    f.Index,
			Identity: f.Identity,
			Error:    finstmt.ErrorMessage(f.Err),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
