package fetchers

import (
	"context"
	"database/sql"
	"fmt"

	"indexviz/internal/catalog"
	"indexviz/internal/logger"
)

// sqliteFetcher implements Fetcher for SQLite. SQLite has a single attached
// schema per file in this design, and its catalog is walked with PRAGMAs.
type sqliteFetcher struct{}

func (sqliteFetcher) ListSchemas(ctx context.Context, dbConn *sql.DB) ([]string, error) {
	sr, err := dbConn.QueryContext(ctx, `PRAGMA database_list`)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query database list", Err: err}
	}
	defer sr.Close()

	var schemas []string
	for sr.Next() {
		var seq int
		var name, file sql.NullString
		if err := sr.Scan(&seq, &name, &file); err != nil {
			return nil, &catalog.QueryError{Op: "scan database row", Err: err}
		}
		if name.Valid {
			schemas = append(schemas, name.String)
		}
	}
	return schemas, sr.Err()
}

func (sqliteFetcher) ListIndexes(ctx context.Context, dbConn *sql.DB, schema string) ([]catalog.IndexRow, error) {
	// PRAGMA arguments cannot be bound; the table and index names below come
	// from sqlite_master and pragma_index_list, not from user input.
	tr, err := dbConn.QueryContext(ctx, `
        SELECT name
        FROM sqlite_master
        WHERE type = 'table'
          AND name NOT LIKE 'sqlite_%'
        ORDER BY name`)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query tables", Schema: schema, Err: err}
	}
	defer tr.Close()

	var tables []string
	for tr.Next() {
		var name string
		if err := tr.Scan(&name); err != nil {
			return nil, &catalog.QueryError{Op: "scan table row", Schema: schema, Err: err}
		}
		tables = append(tables, name)
	}

	var rows []catalog.IndexRow
	for _, table := range tables {
		ilQuery := fmt.Sprintf("SELECT name, \"unique\" FROM pragma_index_list('%s') ORDER BY name", table)
		il, err := dbConn.QueryContext(ctx, ilQuery)
		if err != nil {
			logger.Error("index list for %s: %v", table, err)
			continue
		}
		type idx struct {
			name   string
			unique int
		}
		var indexes []idx
		for il.Next() {
			var ix idx
			if err := il.Scan(&ix.name, &ix.unique); err != nil {
				il.Close()
				return nil, &catalog.QueryError{Op: "scan index row", Schema: schema, Err: err}
			}
			indexes = append(indexes, ix)
		}
		il.Close()

		for _, ix := range indexes {
			iiQuery := fmt.Sprintf("SELECT seqno, name FROM pragma_index_info('%s') ORDER BY seqno", ix.name)
			ii, err := dbConn.QueryContext(ctx, iiQuery)
			if err != nil {
				logger.Error("index info for %s: %v", ix.name, err)
				continue
			}
			for ii.Next() {
				var seqno int
				var column sql.NullString
				if err := ii.Scan(&seqno, &column); err != nil {
					ii.Close()
					return nil, &catalog.QueryError{Op: "scan index column row", Schema: schema, Err: err}
				}
				rows = append(rows, catalog.IndexRow{
					Schema:     schema,
					Table:      table,
					Index:      ix.name,
					SeqInIndex: seqno + 1,
					Column:     column.String,
					NonUnique:  ix.unique == 0,
					IndexType:  "BTREE",
					Engine:     "sqlite",
				})
			}
			ii.Close()
		}
	}
	return rows, nil
}

func init() {
	catalog.Register("sqlite3", sqliteFetcher{})
	catalog.Register("sqlite", sqliteFetcher{})
}
