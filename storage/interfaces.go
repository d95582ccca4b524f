package storage

import (
	"context"

	"churn-etl/models"
)

// RowCounter reports the exact number of rows in a table.
type RowCounter interface {
	CountRows(ctx context.Context, table string) (int, error)
}

// TableStore is the interface any remote table backend must satisfy. Rows are
// only ever appended; a store never updates or deletes.
type TableStore interface {
	RowCounter

	// EnsureTable creates table with the given columns plus a store-managed
	// auto-incrementing id, if it does not exist yet.
	EnsureTable(ctx context.Context, table string, schema models.TableSchema) error

	// InsertRows appends rows, in models.PersistedSchema order, as one unit.
	InsertRows(ctx context.Context, table string, rows []models.PersistedRow) error

	Close() error
}
