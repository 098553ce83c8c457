package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andresuchdata/tmdb-mirror/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubSubmitter struct {
	submissions [][2]string
	err         error
}

func (s *stubSubmitter) Submit(kind, payload string) error {
	s.submissions = append(s.submissions, [2]string{kind, payload})
	return s.err
}

func doRequest(router *gin.Engine, method, path, apiKey, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthIsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewServer(&stubSubmitter{}).Router("secret")

	w := doRequest(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobsRequireAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{}
	router := NewServer(sub).Router("secret")

	w := doRequest(router, http.MethodPost, "/jobs/changes-sync", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPost, "/jobs/changes-sync", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sub.submissions)
}

func TestJobsEnqueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{}
	router := NewServer(sub).Router("secret")

	w := doRequest(router, http.MethodPost, "/jobs/missing-ids", "secret", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, [2]string{scheduler.JobMissingIDs, ""}, sub.submissions[0])
}

func TestNoKeyConfiguredAllowsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{}
	router := NewServer(sub).Router("")

	w := doRequest(router, http.MethodPost, "/jobs/prune-deleted", "", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSingleFlightRejectionMapsTo409(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{err: scheduler.ErrAlreadyRunning}
	router := NewServer(sub).Router("secret")

	w := doRequest(router, http.MethodPost, "/jobs/full-sweep", "secret", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already running")
}

func TestFullSweepForceFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{}
	router := NewServer(sub).Router("secret")

	w := doRequest(router, http.MethodPost, "/jobs/full-sweep", "secret", `{"force": true}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, [2]string{scheduler.JobFullSweep, "true"}, sub.submissions[0])
}

func TestAddMovieValidatesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{}
	router := NewServer(sub).Router("secret")

	w := doRequest(router, http.MethodPost, "/movies/abc", "secret", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/movies/603", "secret", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, [2]string{scheduler.JobAddMovie, "603"}, sub.submissions[0])
}

func TestAddSeriesEnqueues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &stubSubmitter{}
	router := NewServer(sub).Router("")

	w := doRequest(router, http.MethodPost, "/series/1399", "", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, [2]string{scheduler.JobAddSeries, "1399"}, sub.submissions[0])
}
