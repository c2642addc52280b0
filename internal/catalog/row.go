package catalog

// IndexRow is one catalog row describing a single column's membership in an
// index: one row per (schema, table, index, position-in-index, column).
// Rows are read fresh from the catalog views on every fetch; nothing is cached.
type IndexRow struct {
	Schema      string  `json:"schema"`
	Table       string  `json:"table"`
	Index       string  `json:"index"`
	SeqInIndex  int     `json:"seq_in_index"`
	Column      string  `json:"column"`
	NonUnique   bool    `json:"non_unique"`
	IndexType   string  `json:"index_type"`           // e.g. BTREE, HASH
	Engine      string  `json:"engine,omitempty"`     // table storage engine, if the dialect reports one
	TableRows   int64   `json:"table_rows"`           // estimated row count of the owning table
	Cardinality int64   `json:"cardinality"`          // distinct-value estimate
	SizeMB      float64 `json:"size_mb"`              // derived index size estimate
}
