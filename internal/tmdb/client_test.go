package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token", NewLimiter(100, 10))
	c.APIBase = srv.URL
	c.ExportBase = srv.URL
	return c, srv
}

func TestFetchMovieRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id": 603, "title": "The Matrix", "unknown_field": {"nested": true}}`)
	}))

	rec, err := c.FetchMovie(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, int64(603), rec.ID)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "The Matrix", *rec.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchMovieNotFound(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FetchMovie(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestFetchMovieUnauthorizedIsFatal(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.FetchMovie(context.Background(), 603)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchMovieHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id": 603}`)
	}))

	started := time.Now()
	_, err := c.FetchMovie(context.Background(), 603)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), time.Second, "Retry-After not honored")
}

func TestFetchMovieGivesUpAfterFiveAttempts(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.FetchMovie(context.Background(), 603)
	assert.Error(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestFetchChangesPaginates(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-01-02", r.URL.Query().Get("end_date"))
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"results": [{"id": 1}, {"id": 2, "adult": true}], "page": 1, "total_pages": 2}`)
		case "2":
			fmt.Fprint(w, `{"results": [{"id": 3}], "page": 2, "total_pages": 2}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))

	start := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)
	ids, err := c.FetchChanges(context.Background(), FamilyMovie, start, end)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids, "adult entries must be skipped, order preserved")
}

func TestFetchSeriesEndpoint(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/3/tv/1399")
		fmt.Fprint(w, `{"id": 1399, "name": "Game of Thrones"}`)
	}))

	rec, err := c.FetchSeries(context.Background(), 1399)
	require.NoError(t, err)
	assert.Equal(t, int64(1399), rec.ID)
}
