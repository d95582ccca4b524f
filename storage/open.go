package storage

import (
	"context"
	"fmt"
	"strings"
)

// Open returns the TableStore for rawURL, chosen by scheme:
//
//	https://<project>.supabase.co  hosted REST API
//	postgres://user@host/db        PostgreSQL (key is the password if none is given)
//	sqlite://path/to/file.db       local SQLite file
func Open(ctx context.Context, rawURL, key string) (TableStore, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("storage: %q has no scheme", rawURL)
	}

	switch strings.ToLower(scheme) {
	case "http", "https":
		return NewRESTStore(rawURL, key, nil), nil
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, rawURL, key)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(rest)
	}
	return nil, fmt.Errorf("storage: unsupported scheme %q", scheme)
}
