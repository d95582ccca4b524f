package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/lib/pq"

	"churn-etl/models"
)

var postgresDialect = dialect{
	name:        "postgres",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	quote:       pq.QuoteIdentifier,
	idColumn:    "id BIGSERIAL PRIMARY KEY",
	types: map[models.ColumnType]string{
		models.Integer: "INTEGER",
		models.Float:   "DOUBLE PRECISION",
		models.Text:    "TEXT",
	},
	maxParams: 65535,
}

// NewPostgresStore opens a connection to PostgreSQL and returns a TableStore.
// When the URL carries no password, key is used as one.
func NewPostgresStore(ctx context.Context, rawURL, key string) (TableStore, error) {
	dsn, err := postgresDSN(rawURL, key)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 3; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i < 2 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return &sqlStore{db: db, d: postgresDialect}, nil
}

func postgresDSN(rawURL, key string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("postgres: parse url: %w", err)
	}
	if u.User == nil {
		u.User = url.UserPassword("postgres", key)
	} else if _, ok := u.User.Password(); !ok {
		u.User = url.UserPassword(u.User.Username(), key)
	}
	return u.String(), nil
}

// PostgresDDL renders the CREATE TABLE statement used for Postgres-backed
// stores, including hosted ones reached over REST.
func PostgresDDL(table string, schema models.TableSchema) string {
	return createTableSQL(postgresDialect, table, schema)
}
