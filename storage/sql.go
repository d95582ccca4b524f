package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"churn-etl/models"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name        string
	placeholder func(n int) string
	quote       func(ident string) string
	idColumn    string
	types       map[models.ColumnType]string

	// maxParams is the bind-parameter limit of one statement.
	maxParams int
}

// sqlStore implements TableStore on top of database/sql.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) EnsureTable(ctx context.Context, table string, schema models.TableSchema) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.d, table, schema)); err != nil {
		return fmt.Errorf("%s: create table %q: %w", s.d.name, table, err)
	}
	return nil
}

// InsertRows writes rows with as few multi-row INSERTs as the dialect's
// parameter limit allows. Several statements run in one transaction so the
// rows still land or fail together.
func (s *sqlStore) InsertRows(ctx context.Context, table string, rows []models.PersistedRow) error {
	if len(rows) == 0 {
		return nil
	}
	columns := models.PersistedSchema.Names()
	chunks := chunkRows(rows, rowsPerStatement(s.d, len(columns)))

	if len(chunks) == 1 {
		query, args := insertSQL(s.d, table, columns, rows)
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: insert %d rows into %q: %w", s.d.name, len(rows), table, err)
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin insert into %q: %w", s.d.name, table, err)
	}
	for _, chunk := range chunks {
		query, args := insertSQL(s.d, table, columns, chunk)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: insert %d rows into %q: %w", s.d.name, len(rows), table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit insert into %q: %w", s.d.name, table, err)
	}
	return nil
}

// rowsPerStatement is how many rows of width columns fit in one statement.
func rowsPerStatement(d dialect, columns int) int {
	if d.maxParams <= 0 || columns <= 0 {
		return 1
	}
	if n := d.maxParams / columns; n > 0 {
		return n
	}
	return 1
}

func chunkRows(rows []models.PersistedRow, size int) [][]models.PersistedRow {
	var chunks [][]models.PersistedRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

func (s *sqlStore) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM " + s.d.quote(table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count rows in %q: %w", s.d.name, table, err)
	}
	return n, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func createTableSQL(d dialect, table string, schema models.TableSchema) string {
	defs := make([]string, 0, len(schema)+1)
	defs = append(defs, d.idColumn)
	for _, c := range schema {
		defs = append(defs, d.quote(c.Name)+" "+d.types[c.Type])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", d.quote(table), strings.Join(defs, ",\n\t"))
}

// insertSQL builds one multi-row INSERT so a batch lands or fails as a whole.
func insertSQL(d dialect, table string, columns []string, rows []models.PersistedRow) (string, []any) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.quote(c)
	}

	valueStrings := make([]string, 0, len(rows))
	valueArgs := make([]any, 0, len(rows)*len(columns))
	n := 0
	for _, row := range rows {
		ph := make([]string, len(columns))
		for i := range columns {
			n++
			ph[i] = d.placeholder(n)
			if i < len(row) {
				valueArgs = append(valueArgs, row[i])
			} else {
				valueArgs = append(valueArgs, nil)
			}
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.quote(table), strings.Join(quoted, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}
