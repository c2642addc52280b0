// Package server is the session controller: each request runs one full
// fetch → selection → build → render cycle against a freshly opened
// connection and surfaces any failure to the user.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"

	"indexviz/internal/catalog"
	"indexviz/internal/graph"
	"indexviz/internal/logger"
	"indexviz/internal/render"
	"indexviz/pkg/config"
)

// connectFunc matches catalog.Connect; tests substitute a stub.
type connectFunc func(driver, dsn string, timeoutSec int) (*sql.DB, catalog.Fetcher, error)

// Server holds the active connection parameters. That is the only state
// shared across interactions; the connection itself is reopened per request.
type Server struct {
	mu      sync.RWMutex
	cfg     config.DBConfig
	driver  string
	dsn     string
	timeout int

	connect connectFunc
}

// New returns a Server using cfg for the initial connection parameters.
func New(cfg config.DBConfig, timeoutSec int) *Server {
	s := &Server{cfg: cfg, timeout: timeoutSec, connect: catalog.Connect}
	if cfg.Type != "" {
		if driver, dsn, err := config.BuildDriverAndDSN(cfg); err == nil {
			s.driver, s.dsn = driver, dsn
		} else {
			logger.Error("error building DSN: %v", err)
		}
	}
	return s
}

// setActive sets the active database connection parameters.
func (s *Server) setActive(cfg config.DBConfig, driver, dsn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.driver = driver
	s.dsn = dsn
}

// active returns the active database connection parameters.
func (s *Server) active() (string, string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driver, s.dsn, s.timeout
}

// Routes registers the API handlers and the static UI on mux.
func (s *Server) Routes(mux *http.ServeMux, webdir string) {
	mux.Handle("/", http.FileServer(http.Dir(webdir)))
	mux.HandleFunc("/api/getConnect", s.handleGetConnect)
	mux.HandleFunc("/api/connect", s.handleConnect)
	mux.HandleFunc("/api/schemas", s.handleSchemas)
	mux.HandleFunc("/api/tables", s.handleTables)
	mux.HandleFunc("/api/graph", s.handleGraph)
}

// fail logs the failure and surfaces it to the user; no retry.
func fail(w http.ResponseWriter, status int, msg string, err error) {
	logger.Error("%s: %v", msg, err)
	http.Error(w, msg+": "+err.Error(), status)
}

// statusFor maps the catalog error taxonomy to HTTP statuses.
func statusFor(err error) int {
	var connErr *catalog.ConnectionError
	if errors.As(err, &connErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// open connects with the active parameters. The caller closes the returned
// DB at the end of the interaction.
func (s *Server) open(w http.ResponseWriter) (*sql.DB, catalog.Fetcher, bool) {
	driver, dsn, timeout := s.active()
	if driver == "" || dsn == "" {
		http.Error(w, "no active connection; POST /api/connect to create one", http.StatusBadRequest)
		return nil, nil, false
	}
	dbConn, fetcher, err := s.connect(driver, dsn, timeout)
	if err != nil {
		fail(w, statusFor(err), "connection failed", err)
		return nil, nil, false
	}
	return dbConn, fetcher, true
}

// handleGetConnect reports the configured connection parameters so the UI can
// prefill its form. The password is never echoed back.
func (s *Server) handleGetConnect(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	cfg.Password = ""
	cfg.DSN = ""
	writeJSON(w, struct {
		OK     bool            `json:"ok"`
		Config config.DBConfig `json:"config"`
	}{OK: true, Config: cfg})
}

// handleConnect sets new connection parameters and tests them.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var dbReq config.DBConfig
	if err := json.NewDecoder(r.Body).Decode(&dbReq); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	driver, dsn, err := config.BuildDriverAndDSN(dbReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dbConn, fetcher, err := s.connect(driver, dsn, s.timeout)
	if err != nil {
		fail(w, statusFor(err), "connection failed", err)
		return
	}
	defer dbConn.Close()
	schemas, err := fetcher.ListSchemas(r.Context(), dbConn)
	if err != nil {
		fail(w, statusFor(err), "failed to list schemas", err)
		return
	}
	s.setActive(dbReq, driver, dsn)
	writeJSON(w, struct {
		OK      bool     `json:"ok"`
		Schemas []string `json:"schemas"`
	}{OK: true, Schemas: schemas})
}

// handleSchemas lists the schema names. An empty list is a valid result.
func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	dbConn, fetcher, ok := s.open(w)
	if !ok {
		return
	}
	defer dbConn.Close()
	schemas, err := fetcher.ListSchemas(r.Context(), dbConn)
	if err != nil {
		fail(w, statusFor(err), "failed to list schemas", err)
		return
	}
	writeJSON(w, struct {
		Schemas []string `json:"schemas"`
	}{Schemas: schemas})
}

// handleTables lists the index rows of one schema plus the distinct table
// names they cover. The schema parameter is allow-listed against a fresh
// schema fetch before it reaches the index query.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	schema := r.URL.Query().Get("schema")
	if schema == "" {
		http.Error(w, "missing schema parameter", http.StatusBadRequest)
		return
	}
	dbConn, fetcher, ok := s.open(w)
	if !ok {
		return
	}
	defer dbConn.Close()
	rows, ok := s.fetchIndexes(w, r, dbConn, fetcher, schema)
	if !ok {
		return
	}
	var tables []string
	for _, row := range rows {
		if !slices.Contains(tables, row.Table) {
			tables = append(tables, row.Table)
		}
	}
	writeJSON(w, struct {
		Tables []string           `json:"tables"`
		Rows   []catalog.IndexRow `json:"rows"`
	}{Tables: tables, Rows: rows})
}

// handleGraph builds and renders the index diagram for one table.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	schema := r.URL.Query().Get("schema")
	table := r.URL.Query().Get("table")
	if schema == "" || table == "" {
		http.Error(w, "missing schema or table parameter", http.StatusBadRequest)
		return
	}
	dbConn, fetcher, ok := s.open(w)
	if !ok {
		return
	}
	defer dbConn.Close()
	rows, ok := s.fetchIndexes(w, r, dbConn, fetcher, schema)
	if !ok {
		return
	}
	g := graph.Build(rows, table)
	writeJSON(w, render.Render(g))
}

// fetchIndexes allow-lists schema against ListSchemas output and fetches its
// index rows. Only values obtained from ListSchemas ever reach ListIndexes.
func (s *Server) fetchIndexes(w http.ResponseWriter, r *http.Request, dbConn *sql.DB, fetcher catalog.Fetcher, schema string) ([]catalog.IndexRow, bool) {
	schemas, err := fetcher.ListSchemas(r.Context(), dbConn)
	if err != nil {
		fail(w, statusFor(err), "failed to list schemas", err)
		return nil, false
	}
	if !slices.Contains(schemas, schema) {
		http.Error(w, "unknown schema: "+schema, http.StatusBadRequest)
		return nil, false
	}
	rows, err := fetcher.ListIndexes(r.Context(), dbConn, schema)
	if err != nil {
		fail(w, statusFor(err), "failed to list indexes", err)
		return nil, false
	}
	return rows, true
}
