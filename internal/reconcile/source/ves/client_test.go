package ves

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetworks/internal/reconcile/source"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client, err := NewClient(srv.Client(), srv.URL, "api-key-1", nil)
	require.NoError(t, err)
	return client, srv
}

func TestClientLookup(t *testing.T) {
	t.Run("decodes registration record", func(t *testing.T) {
		client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/vehicles", r.URL.Path)
			assert.Equal(t, "api-key-1", r.Header.Get("x-api-key"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "AB12CDE", req["registrationNumber"])

			fmt.Fprint(w, `{
				"registrationNumber": "AB12CDE",
				"make": "FORD",
				"monthOfFirstRegistration": "2024.03",
				"taxDueDate": "2025-11-01",
				"taxStatus": "Taxed"
			}`)
		})
		defer srv.Close()

		rec, err := client.Lookup(context.Background(), "AB12CDE")
		require.NoError(t, err)
		require.NotNil(t, rec)

		assert.Equal(t, "FORD", rec.Make)
		require.NotNil(t, rec.FirstRegistered)
		assert.Equal(t, time.March, rec.FirstRegistered.Month())
		assert.Equal(t, 2024, rec.FirstRegistered.Year())
		require.NotNil(t, rec.TaxDueDate)
		assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), *rec.TaxDueDate)
		assert.Equal(t, "Taxed", rec.TaxStatus)
	})

	t.Run("404 means unknown registration, not an error", func(t *testing.T) {
		client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		defer srv.Close()

		rec, err := client.Lookup(context.Background(), "GHOST1")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("malformed month is bad data", func(t *testing.T) {
		client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"registrationNumber":"AB12CDE","monthOfFirstRegistration":"03/2024"}`)
		})
		defer srv.Close()

		_, err := client.Lookup(context.Background(), "AB12CDE")
		require.Error(t, err)
		assert.Equal(t, source.ErrorBadData, source.CategoryOf(err))
	})

	t.Run("429 is rate limited", func(t *testing.T) {
		client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		defer srv.Close()

		_, err := client.Lookup(context.Background(), "AB12CDE")
		require.Error(t, err)
		assert.Equal(t, source.ErrorRateLimited, source.CategoryOf(err))
	})

	t.Run("5xx is an outage", func(t *testing.T) {
		client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		})
		defer srv.Close()

		_, err := client.Lookup(context.Background(), "AB12CDE")
		require.Error(t, err)
		assert.Equal(t, source.ErrorOutage, source.CategoryOf(err))
	})
}
