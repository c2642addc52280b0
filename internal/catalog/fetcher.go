package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"indexviz/pkg/config"
)

type Fetcher interface {

	// ListSchemas returns the schema names known to the catalog.
	ListSchemas(ctx context.Context, db *sql.DB) ([]string, error)

	// ListIndexes returns per-column index metadata for one schema, joined
	// with table-level storage and row-count metadata, ordered by
	// (table, index, sequence-in-index). The schema name is always bound as
	// a query parameter; callers must still restrict it to values obtained
	// from ListSchemas.
	ListIndexes(ctx context.Context, db *sql.DB, schema string) ([]IndexRow, error)
}

var dialects = map[string]Fetcher{}

// Register makes a Fetcher available under name.
func Register(name string, f Fetcher) {
	dialects[strings.ToLower(name)] = f
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	return keys
}

// Connect opens and pings a database connection and returns it together with
// the Fetcher for its dialect. The caller owns the returned *sql.DB and
// closes it at the end of the interaction; connections are not pooled across
// interactions.
func Connect(driver, dsn string, timeoutSec int) (*sql.DB, Fetcher, error) {
	driver = config.NormalizeDriver(driver)
	fetcher, ok := dialects[driver]
	if !ok {
		return nil, nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, &ConnectionError{Driver: driver, Err: err}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, nil, &ConnectionError{Driver: driver, Err: err}
	}
	return dbConn, fetcher, nil
}

// RegisteredDialects is a helper that allows main to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}
