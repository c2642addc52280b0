package fetchers

import (
	"context"
	"database/sql"

	"indexviz/internal/catalog"
)

// pgFetcher implements Fetcher using information_schema + pg_catalog queries.
type pgFetcher struct{}

func (pgFetcher) ListSchemas(ctx context.Context, dbConn *sql.DB) ([]string, error) {
	sr, err := dbConn.QueryContext(ctx, `
        SELECT schema_name
        FROM information_schema.schemata
        ORDER BY schema_name`)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query schemata", Err: err}
	}
	defer sr.Close()

	var schemas []string
	for sr.Next() {
		var name string
		if err := sr.Scan(&name); err != nil {
			return nil, &catalog.QueryError{Op: "scan schema row", Err: err}
		}
		schemas = append(schemas, name)
	}
	return schemas, sr.Err()
}

func (pgFetcher) ListIndexes(ctx context.Context, dbConn *sql.DB, schema string) ([]catalog.IndexRow, error) {
	// Postgres has no STATISTICS view; the same row shape is assembled from
	// pg_index. Cardinality comes from the index relation's reltuples
	// estimate, size from pg_relation_size.
	ir, err := dbConn.QueryContext(ctx, `
        SELECT
            ns.nspname AS table_schema,
            t.relname AS table_name,
            i.relname AS index_name,
            k.ordinality AS seq_in_index,
            a.attname AS column_name,
            CASE WHEN ix.indisunique THEN 0 ELSE 1 END AS non_unique,
            upper(am.amname) AS index_type,
            t.reltuples::bigint AS table_rows,
            i.reltuples::bigint AS cardinality,
            round(pg_relation_size(i.oid) / 1024.0 / 1024.0, 2) AS index_size_mb
        FROM pg_index ix
        JOIN pg_class i ON i.oid = ix.indexrelid
        JOIN pg_class t ON t.oid = ix.indrelid
        JOIN pg_namespace ns ON ns.oid = t.relnamespace
        JOIN pg_am am ON am.oid = i.relam
        JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ordinality) ON true
        JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
        WHERE ns.nspname = $1
        ORDER BY t.relname, i.relname, k.ordinality`, schema)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query pg_index", Schema: schema, Err: err}
	}
	defer ir.Close()

	var rows []catalog.IndexRow
	for ir.Next() {
		var row catalog.IndexRow
		var nonUnique int
		var tableRows, cardinality sql.NullInt64
		var sizeMB sql.NullFloat64
		if err := ir.Scan(&row.Schema, &row.Table, &row.Index, &row.SeqInIndex, &row.Column,
			&nonUnique, &row.IndexType, &tableRows, &cardinality, &sizeMB); err != nil {
			return nil, &catalog.QueryError{Op: "scan pg_index row", Schema: schema, Err: err}
		}
		row.NonUnique = nonUnique != 0
		row.TableRows = tableRows.Int64
		row.Cardinality = cardinality.Int64
		row.SizeMB = sizeMB.Float64
		rows = append(rows, row)
	}
	return rows, ir.Err()
}

func init() {
	catalog.Register("postgres", pgFetcher{})
	catalog.Register("postgresql", pgFetcher{})
}
