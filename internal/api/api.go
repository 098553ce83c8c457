package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/andresuchdata/tmdb-mirror/internal/api/middleware"
	"github.com/andresuchdata/tmdb-mirror/internal/scheduler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Submitter is the slice of the scheduler the REST surface needs.
type Submitter interface {
	Submit(kind, payload string) error
}

// Server exposes job submission over HTTP. Jobs run in the worker process,
// so single-flight rejections surface directly as 409 responses.
type Server struct {
	submitter Submitter
}

func NewServer(submitter Submitter) *Server {
	return &Server{submitter: submitter}
}

// Router builds the gin engine with auth, logging and all routes.
func (s *Server) Router(apiKey string) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
		cors.Default(),
	)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "TMDB Mirror API",
			"status":  "running",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	authed := router.Group("/", middleware.APIKey(apiKey))

	jobs := authed.Group("/jobs")
	{
		jobs.POST("/full-sweep", s.fullSweep)
		jobs.POST("/changes-sync", s.submitJob(scheduler.JobChangesSync))
		jobs.POST("/missing-ids", s.submitJob(scheduler.JobMissingIDs))
		jobs.POST("/prune-deleted", s.submitJob(scheduler.JobPruneDeleted))
		jobs.POST("/create-tables", s.submitJob(scheduler.JobCreateTables))
		jobs.POST("/test-webhook", s.testWebhook)
	}

	authed.POST("/movies/:id", s.addMedia(scheduler.JobAddMovie))
	authed.POST("/series/:id", s.addMedia(scheduler.JobAddSeries))

	return router
}

type fullSweepRequest struct {
	Force bool `json:"force"`
}

type testWebhookRequest struct {
	Message string `json:"message"`
}

func (s *Server) respond(c *gin.Context, kind string, err error) {
	switch {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{
			"status":   "rejected",
			"job_type": kind,
			"message":  "already running",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"status":   "queued",
			"job_type": kind,
		})
	}
}

func (s *Server) submitJob(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respond(c, kind, s.submitter.Submit(kind, ""))
	}
}

func (s *Server) fullSweep(c *gin.Context) {
	var req fullSweepRequest
	_ = c.ShouldBindJSON(&req)
	s.respond(c, scheduler.JobFullSweep, s.submitter.Submit(scheduler.JobFullSweep, strconv.FormatBool(req.Force)))
}

func (s *Server) testWebhook(c *gin.Context) {
	req := testWebhookRequest{Message: "Test webhook message from TMDB Mirror API"}
	_ = c.ShouldBindJSON(&req)
	s.respond(c, scheduler.JobTestWebhook, s.submitter.Submit(scheduler.JobTestWebhook, req.Message))
}

func (s *Server) addMedia(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
			return
		}
		s.respond(c, kind, s.submitter.Submit(kind, strconv.FormatInt(id, 10)))
	}
}
