package redmine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rdburn/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.RedmineConfig{URL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second, VerifySSL: true}
	return NewClient(cfg, NewConverter([]int{3, 5, 6}), zerolog.Nop())
}

func TestClient_FetchProject(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Redmine-API-Key"))
		assert.Equal(t, "/projects/12.json", r.URL.Path)
		fmt.Fprint(w, `{"project":{
			"id":12,"name":"Backend","identifier":"backend","description":"d","status":1,
			"created_on":"2024-01-01T09:00:00Z","updated_on":"2024-02-01T09:00:00Z",
			"custom_fields":[
				{"name":"start_date","value":"2024-01-01"},
				{"name":"end_date","value":"2024-03-31"}
			]}}`)
	}))

	p, err := client.FetchProject(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 12, p.ID)
	assert.Equal(t, "backend", p.Identifier)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2024-01-01", p.StartDate.Format("2006-01-02"))
	require.NotNil(t, p.EndDate)
	assert.Equal(t, "2024-03-31", p.EndDate.Format("2006-01-02"))
}

func TestClient_FetchAllTickets_Pagination(t *testing.T) {
	var pages atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues.json", r.URL.Path)
		offset := r.URL.Query().Get("offset")
		pages.Add(1)
		if offset == "0" {
			// Full first page; a lone issue follows on page two.
			fmt.Fprint(w, `{"total_count":101,"issues":[`)
			for i := 1; i <= 100; i++ {
				if i > 1 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id":%d,"subject":"t%d","status":{"id":1,"name":"New"},
					"project":{"id":7,"name":"p"},
					"created_on":"2024-01-01T00:00:00Z","updated_on":"2024-01-02T00:00:00Z"}`, i, i)
			}
			fmt.Fprint(w, `]}`)
			return
		}
		fmt.Fprint(w, `{"total_count":101,"issues":[
			{"id":101,"subject":"last","status":{"id":5,"name":"Closed"},
			 "project":{"id":7,"name":"p"},"estimated_hours":4,
			 "created_on":"2024-01-01T00:00:00Z","updated_on":"2024-01-10T00:00:00Z"}]}`)
	}))

	tickets, err := client.FetchAllTickets(context.Background(), 7, true)
	require.NoError(t, err)
	require.Len(t, tickets, 101)
	assert.Equal(t, int32(2), pages.Load())

	last := tickets[100]
	assert.Equal(t, "last", last.Subject)
	require.NotNil(t, last.CompletedOn, "closed status derives a completion timestamp")
	assert.Equal(t, "2024-01-10", last.CompletedOn.Format("2006-01-02"))
	require.NotNil(t, last.EstimatedHours)
	assert.Equal(t, 4.0, *last.EstimatedHours)
}

func TestClient_FetchUpdatedTickets_SinceFilter(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ">=2024-01-15T00:00:00Z", r.URL.Query().Get("updated_on"))
		fmt.Fprint(w, `{"total_count":0,"issues":[]}`)
	}))

	since := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tickets, err := client.FetchUpdatedTickets(context.Background(), 7, &since)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"total_count":0,"issues":[]}`)
	}))

	_, err := client.FetchAllTickets(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_AuthFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := client.TestConnection(context.Background())
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}
