package catalog

import "fmt"

// ConnectionError reports that a database connection could not be
// established. It is fatal for the current interaction; callers surface it
// and do not retry.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failing catalog query. An empty result set is not a
// QueryError; fetchers return it only when the query itself fails.
type QueryError struct {
	Op     string
	Schema string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (schema %s): %v", e.Op, e.Schema, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
