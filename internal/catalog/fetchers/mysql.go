package fetchers

import (
	"context"
	"database/sql"

	"indexviz/internal/catalog"
)

// myFetcher implements Fetcher for MySQL (information_schema).
type myFetcher struct{}

func (myFetcher) ListSchemas(ctx context.Context, dbConn *sql.DB) ([]string, error) {
	sr, err := dbConn.QueryContext(ctx, `
        SELECT SCHEMA_NAME
        FROM information_schema.SCHEMATA
        ORDER BY SCHEMA_NAME`)
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

func (myFetcher) ListIndexes(ctx context.Context, dbConn *sql.DB, schema string) ([]catalog.IndexRow, error) {
	ir, err := dbConn.QueryContext(ctx, `
        SELECT
            s.TABLE_SCHEMA,
            s.TABLE_NAME,
            s.INDEX_NAME,
            s.SEQ_IN_INDEX,
            s.COLUMN_NAME,
            s.NON_UNIQUE,
            s.INDEX_TYPE,
            t.ENGINE,
            t.TABLE_ROWS,
            s.CARDINALITY,
            ROUND(COALESCE(s.CARDINALITY, 0) * @@innodb_page_size / 1024 / 1024, 2) AS INDEX_SIZE_MB
        FROM information_schema.STATISTICS s
        INNER JOIN information_schema.TABLES t
            ON s.TABLE_SCHEMA = t.TABLE_SCHEMA
           AND s.TABLE_NAME = t.TABLE_NAME
        WHERE s.TABLE_SCHEMA = ?
        ORDER BY s.TABLE_NAME, s.INDEX_NAME, s.SEQ_IN_INDEX`, schema)
	if err != nil {
		return nil, &catalog.QueryError{Op: "query statistics", Schema: schema, Err: err}
	}
	defer ir.Close()

	var rows []catalog.IndexRow
	for ir.Next() {
		var row catalog.IndexRow
		var nonUnique int
		var engine sql.NullString
		var tableRows, cardinality sql.NullInt64
		var sizeMB sql.NullFloat64
		if err := ir.Scan(&row.Schema, &row.Table, &row.Index, &row.SeqInIndex, &row.Column,
			&nonUnique, &row.IndexType, &engine, &tableRows, &cardinality, &sizeMB); err != nil {
			return nil, &catalog.QueryError{Op: "scan statistics row", Schema: schema, Err: err}
		}
		row.NonUnique = nonUnique != 0
		row.Engine = engine.String
		row.TableRows = tableRows.Int64
		row.Cardinality = cardinality.Int64
		row.SizeMB = sizeMB.Float64
		rows = append(rows, row)
	}
	return rows, ir.Err()
}

func init() {
	catalog.Register("mysql", myFetcher{})
	catalog.Register("mariadb", myFetcher{})
}
