package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"churn-etl/models"
)

// RESTStore talks to a hosted Postgres through its PostgREST endpoint
// (the Supabase REST API).
type RESTStore struct {
	restURL   string
	key       string
	transport http.RoundTripper
}

// NewRESTStore returns a store for the project at baseURL. A nil transport
// means http.DefaultTransport.
func NewRESTStore(baseURL, key string, transport http.RoundTripper) *RESTStore {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &RESTStore{
		restURL:   strings.TrimRight(baseURL, "/") + "/rest/v1",
		key:       key,
		transport: transport,
	}
}

// client builds a PostgREST client whose requests are bound to ctx. A fresh
// client per call keeps one failed call's ClientError from leaking into the next.
func (s *RESTStore) client(ctx context.Context) (*postgrest.Client, error) {
	c := postgrest.NewClient(s.restURL, "", nil)
	if c.ClientError != nil {
		return nil, c.ClientError
	}
	c.SetApiKey(s.key).SetAuthToken(s.key)
	c.Transport.Parent = contextTransport{ctx: ctx, next: s.transport}
	return c, nil
}

// EnsureTable runs the CREATE TABLE statement through the execute_sql RPC.
// Projects without that function must create the table by hand.
func (s *RESTStore) EnsureTable(ctx context.Context, table string, schema models.TableSchema) error {
	c, err := s.client(ctx)
	if err != nil {
		return fmt.Errorf("rest: create table %q: %w", table, err)
	}

	body := c.Rpc("execute_sql", "", map[string]string{"query": PostgresDDL(table, schema)})
	if c.ClientError != nil {
		return fmt.Errorf("rest: create table %q: %w", table, c.ClientError)
	}
	// Rpc does not report the status code; PostgREST errors carry a message.
	var rpcErr postgrest.ExecuteError
	if json.Unmarshal([]byte(body), &rpcErr) == nil && rpcErr.Message != "" {
		return fmt.Errorf("rest: create table %q: (%s) %s", table, rpcErr.Code, rpcErr.Message)
	}
	return nil
}

// InsertRows posts the rows as one JSON array.
func (s *RESTStore) InsertRows(ctx context.Context, table string, rows []models.PersistedRow) error {
	if len(rows) == 0 {
		return nil
	}
	names := models.PersistedSchema.Names()
	records := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(names))
		for j, name := range names {
			if j < len(row) {
				rec[name] = row[j]
			} else {
				rec[name] = nil
			}
		}
		records[i] = rec
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("rest: encode rows: %w", err)
	}
	c, err := s.client(ctx)
	if err != nil {
		return fmt.Errorf("rest: insert into %q: %w", table, err)
	}
	if _, _, err := c.From(table).Insert(json.RawMessage(payload), false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("rest: insert %d rows into %q: %w", len(rows), table, err)
	}
	return nil
}

// CountRows asks for an exact count, read from the Content-Range header.
func (s *RESTStore) CountRows(ctx context.Context, table string) (int, error) {
	c, err := s.client(ctx)
	if err != nil {
		return 0, fmt.Errorf("rest: count rows in %q: %w", table, err)
	}
	body, count, err := c.From(table).Select("id", "exact", false).Limit(1, "").Execute()
	if err != nil {
		return 0, fmt.Errorf("rest: count rows in %q: %w", table, err)
	}
	if count > 0 {
		return int(count), nil
	}

	// No total reported: fall back to the rows returned.
	var data []json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("rest: count rows in %q: decode body: %w", table, err)
	}
	return len(data), nil
}

// Close is a no-op; clients are built per call.
func (s *RESTStore) Close() error { return nil }

// contextTransport attaches ctx to every request, since the PostgREST client
// builds its requests without one.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}
