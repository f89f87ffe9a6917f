package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"triggerd/internal/jobservice"
)

// Handlers holds the jobservice dependency for the HTTP surface (spec §6).
type Handlers struct {
	svc *jobservice.Service
}

func NewHandlers(svc *jobservice.Service) *Handlers {
	return &Handlers{svc: svc}
}

func (h *Handlers) CreateJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, jobservice.ErrValidation, err)
		return
	}

	svcReq, err := toServiceRequest(req)
	if err != nil {
		writeError(c, 0, nil, err)
		return
	}

	job, err := h.svc.Create(c.Request.Context(), svcReq)
	if err != nil {
		writeError(c, 0, nil, err)
		return
	}
	c.JSON(http.StatusCreated, toJobResponse(job))
}

func (h *Handlers) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, jobservice.ErrValidation, err)
		return
	}
	job, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, 0, nil, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *Handlers) ListJobs(c *gin.Context) {
	jobs, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, 0, nil, err)
		return
	}
	resp := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, toJobResponse(j))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) DeleteJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, jobservice.ErrValidation, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, 0, nil, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handlers) PauseJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, jobservice.ErrValidation, err)
		return
	}
	if err := h.svc.Pause(c.Request.Context(), id); err != nil {
		writeError(c, 0, nil, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handlers) ResumeJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, jobservice.ErrValidation, err)
		return
	}
	if err := h.svc.Resume(c.Request.Context(), id); err != nil {
		writeError(c, 0, nil, err)
		return
	}
	c.Status(http.StatusAccepted)
}
