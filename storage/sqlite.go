package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"churn-etl/models"
)

var sqliteDialect = dialect{
	name:        "sqlite",
	placeholder: func(int) string { return "?" },
	quote:       quoteSQLite,
	idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
	types: map[models.ColumnType]string{
		models.Integer: "INTEGER",
		models.Float:   "REAL",
		models.Text:    "TEXT",
	},
	maxParams: 32766,
}

// NewSQLiteStore opens (or creates) the SQLite database file at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (TableStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}
	return &sqlStore{db: db, d: sqliteDialect}, nil
}

func quoteSQLite(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
