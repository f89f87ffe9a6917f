package api

import (
	"github.com/gin-gonic/gin"

	"triggerd/internal/jobservice"
)

// NewRouter builds the gin engine exposing the job CRUD surface from
// spec §6, rate-limited the way the teacher guards its HTTP layer.
func NewRouter(svc *jobservice.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RateLimit(20))

	h := NewHandlers(svc)
	jobs := r.Group("/api/jobs")
	{
		jobs.POST("", h.CreateJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
		jobs.DELETE("/:id", h.DeleteJob)
		jobs.PATCH("/:id/pause", h.PauseJob)
		jobs.PATCH("/:id/resume", h.ResumeJob)
	}
	return r
}
