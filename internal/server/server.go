package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abramin/abilens/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Server is the abilens HTTP server.
type Server struct {
	store      *store.Store
	httpServer *http.Server
	port       int
	log        logrus.FieldLogger
}

// Config holds server configuration.
type Config struct {
	Port       int
	ProjectDir string
	StoreDir   string
	Log        logrus.FieldLogger
}

// New creates a new server instance.
func New(cfg Config) (*Server, error) {
	st, err := store.Open(cfg.ProjectDir, cfg.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		store: st,
		port:  cfg.Port,
		log:   log,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/contracts", s.corsMiddleware(s.handleContracts))
	mux.HandleFunc("/api/contracts/", s.corsMiddleware(s.handleContract))
	mux.HandleFunc("/api/search", s.corsMiddleware(s.handleSearch))
	mux.HandleFunc("/api/graph/", s.corsMiddleware(s.handleGraph))
	mux.HandleFunc("/api/stats", s.corsMiddleware(s.handleStats))
	// Health check
	mux.HandleFunc("/api/health", s.corsMiddleware(s.handleHealth))

	// Built UI or the endpoint list
	mux.Handle("/", UIHandler(s.port))

	return s.requestLogger(mux)
}

// Start serves until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", fmt.Sprintf("http://localhost:%d", s.port)).Info("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.store.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// corsMiddleware adds CORS headers for local development.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("encoding JSON response")
	}
}

// writeRawJSON writes an already encoded JSON document.
func writeRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStats returns index statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.store.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleContracts handles GET /api/contracts
func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	contracts, err := s.store.GetContracts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get contracts")
		return
	}

	if r.URL.Query().Get("failed") == "true" {
		failed := []store.Contract{}
		for _, c := range contracts {
			if c.ParseError != "" {
				failed = append(failed, c)
			}
		}
		contracts = failed
	}

	writeJSON(w, http.StatusOK, contracts)
}

// handleContract dispatches the per-contract routes:
//
//	GET /api/contracts/:id
//	GET /api/contracts/:id/abi[?path=gjson.path]
//	GET /api/contracts/:id/functions
//	GET /api/contracts/:id/types/:name
func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Extract ID from path: /api/contracts/123[/...]
	path := strings.TrimPrefix(r.URL.Path, "/api/contracts/")
	parts := strings.SplitN(path, "/", 3)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract ID")
		return
	}

	contract, err := s.store.GetContractByID(store.ContractID(id))
	if err != nil {
		writeError(w, http.StatusNotFound, "contract not found")
		return
	}

	switch {
	case len(parts) == 1:
		s.writeContract(w, contract)
	case len(parts) == 2 && parts[1] == "abi":
		s.writeContractABI(w, r, contract)
	case len(parts) == 2 && parts[1] == "functions":
		functions, err := s.store.GetFunctions(contract.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get functions")
			return
		}
		writeJSON(w, http.StatusOK, functions)
	case len(parts) == 3 && parts[1] == "types" && parts[2] != "":
		s.writeType(w, contract, parts[2])
	default:
		writeError(w, http.StatusNotFound, "unknown contract endpoint")
	}
}

func (s *Server) writeContract(w http.ResponseWriter, contract *store.Contract) {
	types, err := s.store.GetTypes(contract.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get types")
		return
	}
	impls, err := s.store.GetImpls(contract.ID)
	if err != nil {
		impls = []store.Impl{} // Don't fail if impls can't be fetched
	}

	response := struct {
		*store.Contract
		Types []store.Type `json:"types"`
		Impls []store.Impl `json:"impls"`
	}{
		Contract: contract,
		Types:    types,
		Impls:    impls,
	}

	writeJSON(w, http.StatusOK, response)
}

// writeContractABI returns the parsed ABI as stored at index time. A gjson
// path narrows the document, e.g. ?path=structures.Point.members
func (s *Server) writeContractABI(w http.ResponseWriter, r *http.Request, contract *store.Contract) {
	if contract.ABIJSON == "" {
		writeError(w, http.StatusNotFound, "contract failed to parse: "+contract.ParseError)
		return
	}

	raw := []byte(contract.ABIJSON)
	if p := r.URL.Query().Get("path"); p != "" {
		result := gjson.GetBytes(raw, p)
		if !result.Exists() {
			writeError(w, http.StatusNotFound, "path not found in abi")
			return
		}
		raw = []byte(result.Raw)
	}
	if r.URL.Query().Get("pretty") == "true" {
		raw = pretty.Pretty(raw)
	}

	writeRawJSON(w, http.StatusOK, raw)
}

func (s *Server) writeType(w http.ResponseWriter, contract *store.Contract, name string) {
	typ, err := s.store.GetTypeByName(contract.ID, name)
	if err != nil {
		writeError(w, http.StatusNotFound, "type not found")
		return
	}

	tags, err := s.store.GetTypeTags(typ.ID)
	if err != nil {
		tags = []store.Tag{}
	}
	refs, err := s.store.GetTypeRefs(typ.ID)
	if err != nil {
		refs = []store.TypeRef{}
	}

	response := struct {
		*store.Type
		Tags       []store.Tag     `json:"tags"`
		References []store.TypeRef `json:"references"`
	}{
		Type:       typ,
		Tags:       tags,
		References: refs,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleSearch handles GET /api/search?query=xxx
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter required")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	results, err := s.store.SearchTypes(query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// handleGraph handles GET /api/graph/:contractId/:typeName?depth=N
// and returns the dependency graph of the type.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Extract contract ID and type name: /api/graph/1/token::Event
	path := strings.TrimPrefix(r.URL.Path, "/api/graph/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "invalid graph endpoint")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract ID")
		return
	}

	// Get the root type
	root, err := s.store.GetTypeByName(store.ContractID(id), parts[1])
	if err != nil {
		writeError(w, http.StatusNotFound, "type not found")
		return
	}

	filter := DefaultGraphFilter()
	q := r.URL.Query()
	depth := filter.MaxDepth
	if d, err := strconv.Atoi(q.Get("depth")); err == nil && d > 0 {
		depth = d
	}
	filter.HideCore = q.Get("hideCore") == "true"
	filter.HideEvents = q.Get("hideEvents") == "true"

	graph, err := NewGraphBuilder(s.store, filter).BuildFromRoot(root.ID, depth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build graph")
		return
	}

	writeJSON(w, http.StatusOK, graph)
}
