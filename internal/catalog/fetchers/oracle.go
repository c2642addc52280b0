//go:build oracle
// +build oracle

package fetchers

import (
	"context"
	"database/sql"

	_ "github.com/godror/godror"

	"indexviz/internal/catalog"
)

// oracleFetcher implements Fetcher for Oracle.
type oracleFetcher struct{}

func (oracleFetcher) ListSchemas(ctx context.Context, dbConn *sql.DB) ([]string, error) {
	sr, err := dbConn.QueryContext(ctx, `
        SELECT username
        FROM all_users
        WHERE oracle_maintained = 'N'
        ORDER BY username`)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query users", Err: err}
	}
	defer sr.Close()

	var schemas []string
	for sr.Next() {
		var name string
		if err := sr.Scan(&name); err != nil {
			return nil, &catalog.QueryError{Op: "scan user row", Err: err}
		}
		schemas = append(schemas, name)
	}
	return schemas, sr.Err()
}

func (oracleFetcher) ListIndexes(ctx context.Context, dbConn *sql.DB, schema string) ([]catalog.IndexRow, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT
            i.owner,
            i.table_name,
            i.index_name,
            ic.column_position,
            ic.column_name,
            CASE i.uniqueness WHEN 'UNIQUE' THEN 0 ELSE 1 END AS non_unique,
            i.index_type,
            nvl(t.num_rows, 0) AS table_rows,
            nvl(i.distinct_keys, 0) AS cardinality,
            round(nvl(i.leaf_blocks, 0) * 8192 / 1024 / 1024, 2) AS index_size_mb
        FROM all_indexes i
        JOIN all_ind_columns ic
          ON ic.index_owner = i.owner
         AND ic.index_name = i.index_name
        JOIN all_tables t
          ON t.owner = i.table_owner
         AND t.table_name = i.table_name
        WHERE i.owner = :1
        ORDER BY i.table_name, i.index_name, ic.column_position`, schema)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query all_indexes", Schema: schema, Err: err}
	}
	defer ir.Close()

	var rows []catalog.IndexRow
	for ir.Next() {
		var row catalog.IndexRow
		var nonUnique int
		if err := ir.Scan(&row.Schema, &row.Table, &row.Index, &row.SeqInIndex, &row.Column,
			&nonUnique, &row.IndexType, &row.TableRows, &row.Cardinality, &row.SizeMB); err != nil {
			return nil, &catalog.QueryError{Op: "scan all_indexes row", Schema: schema, Err: err}
		}
		row.NonUnique = nonUnique != 0
		rows = append(rows, row)
	}
	return rows, ir.Err()
}

func init() {
	catalog.Register("godror", oracleFetcher{})
	catalog.Register("oracle", oracleFetcher{})
}
