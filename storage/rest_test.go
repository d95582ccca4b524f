package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-etl/models"
)

func TestRESTStoreInsertRows(t *testing.T) {
	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/telco_churn", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL+"/", "secret", srv.Client().Transport)
	rows := []models.PersistedRow{
		models.NewPersistedRow(models.Row{
			"tenure": "1", "MonthlyCharges": "29.85", "TotalCharges": "",
			"Churn": "No", "Contract": "Month-to-month", "contract_type_code": "",
		}),
	}
	require.NoError(t, store.InsertRows(context.Background(), "telco_churn", rows))

	require.Len(t, got, 1)
	assert.Len(t, got[0], len(models.PersistedSchema))
	assert.Equal(t, float64(1), got[0]["tenure"])
	assert.Equal(t, 29.85, got[0]["MonthlyCharges"])
	assert.Nil(t, got[0]["TotalCharges"])
	assert.Nil(t, got[0]["contract_type_code"])
	assert.Equal(t, "No", got[0]["Churn"])
}

func TestRESTStoreInsertError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"42P01","message":"relation does not exist"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "secret", srv.Client().Transport)
	err := store.InsertRows(context.Background(), "telco_churn", []models.PersistedRow{models.NewPersistedRow(nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42P01")
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestRESTStoreCountRows(t *testing.T) {
	tests := []struct {
		name         string
		contentRange string
		body         string
		want         int
	}{
		{"range with rows", "0-0/7043", `[{"id":1}]`, 7043},
		{"empty table", "*/0", `[]`, 0},
		{"no header falls back to body", "", `[{"id":1}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
				assert.Equal(t, "id", r.URL.Query().Get("select"))
				if tt.contentRange != "" {
					w.Header().Set("Content-Range", tt.contentRange)
				}
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			n, err := NewRESTStore(srv.URL, "secret", srv.Client().Transport).CountRows(context.Background(), "telco_churn")
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestRESTStoreEnsureTable(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/execute_sql", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		query = body["query"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "secret", srv.Client().Transport)
	require.NoError(t, store.EnsureTable(context.Background(), "telco_churn", models.PersistedSchema))

	assert.True(t, strings.HasPrefix(query, `CREATE TABLE IF NOT EXISTS "telco_churn"`), query)
	assert.Contains(t, query, "id BIGSERIAL PRIMARY KEY")
	assert.Contains(t, query, `"MonthlyCharges" DOUBLE PRECISION`)
	assert.Contains(t, query, `"contract_type_code" INTEGER`)
}

func TestRESTStoreEnsureTableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"PGRST202","message":"Could not find the function public.execute_sql"}`)
	}))
	defer srv.Close()

	err := NewRESTStore(srv.URL, "secret", srv.Client().Transport).EnsureTable(context.Background(), "telco_churn", models.PersistedSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PGRST202")
	assert.Contains(t, err.Error(), "execute_sql")
}

func TestRESTStoreHonoursContext(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewRESTStore(srv.URL, "secret", srv.Client().Transport)
	err := store.InsertRows(ctx, "telco_churn", []models.PersistedRow{models.NewPersistedRow(nil)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)

	// A failed call does not poison the next one.
	require.NoError(t, store.InsertRows(context.Background(), "telco_churn", []models.PersistedRow{models.NewPersistedRow(nil)}))
	assert.True(t, called)
}
