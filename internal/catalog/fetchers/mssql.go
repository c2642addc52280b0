package fetchers

import (
	"context"
	"database/sql"

	"indexviz/internal/catalog"
)

// mssqlFetcher implements Fetcher for Microsoft SQL Server.
type mssqlFetcher struct{}

func (mssqlFetcher) ListSchemas(ctx context.Context, dbConn *sql.DB) ([]string, error) {
	sr, err := dbConn.QueryContext(ctx, `
        SELECT name
        FROM sys.schemas
        WHERE schema_id < 16384
          AND name NOT IN ('sys', 'INFORMATION_SCHEMA')
        ORDER BY name`)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query schemas", Err: err}
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

func (mssqlFetcher) ListIndexes(ctx context.Context, dbConn *sql.DB, schema string) ([]catalog.IndexRow, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT
            sc.name AS table_schema,
            t.name AS table_name,
            i.name AS index_name,
            ic.key_ordinal AS seq_in_index,
            c.name AS column_name,
            CASE WHEN i.is_unique = 1 THEN 0 ELSE 1 END AS non_unique,
            i.type_desc AS index_type,
            COALESCE(ps.row_count, 0) AS table_rows,
            COALESCE(ps.row_count, 0) AS cardinality,
            ROUND(COALESCE(ps.used_page_count, 0) * 8.0 / 1024.0, 2) AS index_size_mb
        FROM sys.indexes i
        JOIN sys.tables t ON t.object_id = i.object_id
        JOIN sys.schemas sc ON sc.schema_id = t.schema_id
        JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
        JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
        LEFT JOIN sys.dm_db_partition_stats ps ON ps.object_id = i.object_id AND ps.index_id = i.index_id
        WHERE sc.name = @schema AND i.name IS NOT NULL
        ORDER BY t.name, i.name, ic.key_ordinal`, sql.Named("schema", schema))
	if err != nil {
		return nil, &catalog.QueryError{Op: "query indexes", Schema: schema, Err: err}
	}
	defer ir.Close()

	var rows []catalog.IndexRow
	for ir.Next() {
		var row catalog.IndexRow
		var nonUnique int
		if err := ir.Scan(&row.Schema, &row.Table, &row.Index, &row.SeqInIndex, &row.Column,
			&nonUnique, &row.IndexType, &row.TableRows, &row.Cardinality, &row.SizeMB); err != nil {
			return nil, &catalog.QueryError{Op: "scan index row", Schema: schema, Err: err}
		}
		row.NonUnique = nonUnique != 0
		rows = append(rows, row)
	}
	return rows, ir.Err()
}

func init() {
	catalog.Register("sqlserver", mssqlFetcher{})
	catalog.Register("mssql", mssqlFetcher{})
}
