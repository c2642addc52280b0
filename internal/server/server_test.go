package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"indexviz/internal/catalog"
	"indexviz/internal/render"
	"indexviz/pkg/config"
)

// stubFetcher serves canned results and records every schema name that
// reaches ListIndexes.
type stubFetcher struct {
	schemas    []string
	rows       []catalog.IndexRow
	schemasErr error
	rowsErr    error

	indexCalls []string
}

func (f *stubFetcher) ListSchemas(ctx context.Context, db *sql.DB) ([]string, error) {
	return f.schemas, f.schemasErr
}

func (f *stubFetcher) ListIndexes(ctx context.Context, db *sql.DB, schema string) ([]catalog.IndexRow, error) {
	f.indexCalls = append(f.indexCalls, schema)
	return f.rows, f.rowsErr
}

func newTestServer(t *testing.T, fetcher catalog.Fetcher) *Server {
	t.Helper()
	s := New(config.DBConfig{}, 1)
	s.driver, s.dsn = "mysql", "stub-dsn"
	s.connect = func(driver, dsn string, timeoutSec int) (*sql.DB, catalog.Fetcher, error) {
		db, _, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		return db, fetcher, nil
	}
	return s
}

func ordersRows() []catalog.IndexRow {
	return []catalog.IndexRow{
		{Schema: "shop", Table: "orders", Index: "idx_user", SeqInIndex: 1, Column: "user_id",
			NonUnique: true, IndexType: "BTREE", Cardinality: 120, SizeMB: 1.88},
		{Schema: "shop", Table: "orders", Index: "idx_user", SeqInIndex: 2, Column: "created_at",
			NonUnique: true, IndexType: "BTREE", Cardinality: 950, SizeMB: 14.84},
		{Schema: "shop", Table: "orders", Index: "pk", SeqInIndex: 1, Column: "id",
			NonUnique: false, IndexType: "BTREE", Cardinality: 1000, SizeMB: 15.63},
		{Schema: "shop", Table: "customers", Index: "pk", SeqInIndex: 1, Column: "id",
			NonUnique: false, IndexType: "BTREE", Cardinality: 50, SizeMB: 0.78},
	}
}

func TestHandleSchemas(t *testing.T) {
	fetcher := &stubFetcher{schemas: []string{"blog", "shop"}}
	s := newTestServer(t, fetcher)

	w := httptest.NewRecorder()
	s.handleSchemas(w, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("\ngot status %d, wanted %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp struct {
		Schemas []string `json:"schemas"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("\ndecode response: %v", err)
	}
	if len(resp.Schemas) != 2 || resp.Schemas[0] != "blog" || resp.Schemas[1] != "shop" {
		t.Errorf("\ngot schemas %v, wanted [blog shop]", resp.Schemas)
	}
}

func TestHandleSchemasNoActiveConnection(t *testing.T) {
	s := New(config.DBConfig{}, 1)

	w := httptest.NewRecorder()
	s.handleSchemas(w, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("\ngot status %d, wanted %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleSchemasConnectionFailure(t *testing.T) {
	s := New(config.DBConfig{}, 1)
	s.driver, s.dsn = "mysql", "stub-dsn"
	s.connect = func(driver, dsn string, timeoutSec int) (*sql.DB, catalog.Fetcher, error) {
		return nil, nil, &catalog.ConnectionError{Driver: driver, Err: context.DeadlineExceeded}
	}

	w := httptest.NewRecorder()
	s.handleSchemas(w, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("\ngot status %d, wanted %d", w.Code, http.StatusBadGateway)
	}
}

func TestHandleTables(t *testing.T) {
	fetcher := &stubFetcher{schemas: []string{"shop"}, rows: ordersRows()}
	s := newTestServer(t, fetcher)

	w := httptest.NewRecorder()
	s.handleTables(w, httptest.NewRequest(http.MethodGet, "/api/tables?schema=shop", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("\ngot status %d, wanted %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp struct {
		Tables []string           `json:"tables"`
		Rows   []catalog.IndexRow `json:"rows"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("\ndecode response: %v", err)
	}
	if len(resp.Tables) != 2 || resp.Tables[0] != "orders" || resp.Tables[1] != "customers" {
		t.Errorf("\ngot tables %v, wanted [orders customers]", resp.Tables)
	}
	if len(resp.Rows) != 4 {
		t.Errorf("\ngot %d rows, wanted 4", len(resp.Rows))
	}
}

func TestIndexQueriesOnlySeeListedSchemas(t *testing.T) {
	// the schema value handed to ListIndexes must originate from ListSchemas
	// output; anything else is rejected before reaching the query
	fetcher := &stubFetcher{schemas: []string{"shop"}, rows: ordersRows()}
	s := newTestServer(t, fetcher)

	for _, target := range []string{"/api/tables", "/api/graph"} {
		for _, schema := range []string{"mysql' OR '1'='1", "not_listed"} {
			q := url.Values{"schema": {schema}, "table": {"orders"}}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, target+"?"+q.Encode(), nil)
			if target == "/api/graph" {
				s.handleGraph(w, req)
			} else {
				s.handleTables(w, req)
			}
			if w.Code != http.StatusBadRequest {
				t.Errorf("\n%s schema %q: got status %d, wanted %d", target, schema, w.Code, http.StatusBadRequest)
			}
		}
	}
	if len(fetcher.indexCalls) != 0 {
		t.Fatalf("\nListIndexes saw unlisted schemas: %v", fetcher.indexCalls)
	}

	w := httptest.NewRecorder()
	s.handleTables(w, httptest.NewRequest(http.MethodGet, "/api/tables?schema=shop", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("\ngot status %d, wanted %d", w.Code, http.StatusOK)
	}
	for _, schema := range fetcher.indexCalls {
		if schema != "shop" {
			t.Errorf("\nListIndexes saw schema %q, wanted only values from ListSchemas", schema)
		}
	}
}

func TestHandleGraph(t *testing.T) {
	fetcher := &stubFetcher{schemas: []string{"shop"}, rows: ordersRows()}
	s := newTestServer(t, fetcher)

	w := httptest.NewRecorder()
	s.handleGraph(w, httptest.NewRequest(http.MethodGet, "/api/graph?schema=shop&table=orders", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("\ngot status %d, wanted %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var fig render.Figure
	if err := json.NewDecoder(w.Body).Decode(&fig); err != nil {
		t.Fatalf("\ndecode figure: %v", err)
	}
	// orders has 6 nodes and 5 edges: 5 line traces plus the node trace
	if len(fig.Data) != 6 {
		t.Fatalf("\ngot %d traces, wanted 6", len(fig.Data))
	}
	nodes := fig.Data[len(fig.Data)-1]
	if len(nodes.Text) != 6 {
		t.Errorf("\ngot %d node labels, wanted 6", len(nodes.Text))
	}
}

func TestHandleGraphUnknownTable(t *testing.T) {
	// a table with no index rows renders an empty figure, not an error
	fetcher := &stubFetcher{schemas: []string{"shop"}, rows: ordersRows()}
	s := newTestServer(t, fetcher)

	w := httptest.NewRecorder()
	s.handleGraph(w, httptest.NewRequest(http.MethodGet, "/api/graph?schema=shop&table=no_such_table", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("\ngot status %d, wanted %d", w.Code, http.StatusOK)
	}
	var fig render.Figure
	if err := json.NewDecoder(w.Body).Decode(&fig); err != nil {
		t.Fatalf("\ndecode figure: %v", err)
	}
	if len(fig.Data) != 0 {
		t.Errorf("\ngot %d traces, wanted none", len(fig.Data))
	}
}

func TestHandleGraphQueryError(t *testing.T) {
	fetcher := &stubFetcher{schemas: []string{"shop"},
		rowsErr: &catalog.QueryError{Op: "query statistics", Schema: "shop", Err: sql.ErrConnDone}}
	s := newTestServer(t, fetcher)

	w := httptest.NewRecorder()
	s.handleGraph(w, httptest.NewRequest(http.MethodGet, "/api/graph?schema=shop&table=orders", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("\ngot status %d, wanted %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHandleConnectRejectsNonPost(t *testing.T) {
	s := newTestServer(t, &stubFetcher{})

	w := httptest.NewRecorder()
	s.handleConnect(w, httptest.NewRequest(http.MethodGet, "/api/connect", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("\ngot status %d, wanted %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleGetConnectOmitsPassword(t *testing.T) {
	s := newTestServer(t, &stubFetcher{})
	s.cfg = config.DBConfig{Type: "mysql", Host: "localhost", Port: 3306, Username: "root", Password: "secret"}

	w := httptest.NewRecorder()
	s.handleGetConnect(w, httptest.NewRequest(http.MethodGet, "/api/getConnect", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("\ngot status %d, wanted %d", w.Code, http.StatusOK)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("\npassword echoed back to the client")
	}
	var resp struct {
		OK     bool            `json:"ok"`
		Config config.DBConfig `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("\ndecode response: %v", err)
	}
	if !resp.OK || resp.Config.Host != "localhost" {
		t.Errorf("\ngot response %+v, wanted ok with host localhost", resp)
	}
}
