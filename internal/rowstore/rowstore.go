// Package rowstore abstracts the transitional row-oriented data store the
// fulfillment data migrated from. Callers see named tables of column-keyed
// rows and never row or column positions.
package rowstore

import "context"

// Row is one record of a table, keyed by column name.
type Row map[string]any

// Source is a pluggable row-oriented store.
type Source interface {
	// ReadAll returns every row of the named table. An unknown table reads
	// as empty, not as an error.
	ReadAll(ctx context.Context, table string) ([]Row, error)

	// WriteBatch appends rows to the named table, creating it as needed.
	WriteBatch(ctx context.Context, table string, rows []Row) error
}

// String reads a column as a string, tolerating absent or non-string values.
func (r Row) String(column string) string {
	v, ok := r[column]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Int reads a column as an int. JSON decoding yields float64 for numbers.
func (r Row) Int(column string) int {
	switch v := r[column].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
