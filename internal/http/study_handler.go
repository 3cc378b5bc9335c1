package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowd-sim/internal/service"
	"crowd-sim/internal/simulation"
)

// StudyHandler mantiene dependencias para endpoints de corridas de simulación.
type StudyHandler struct {
	logger    *zap.Logger
	studyServ *service.StudyService
}

// NewStudyHandler crea una instancia de StudyHandler con dependencias necesarias.
func NewStudyHandler(logger *zap.Logger, studyServ *service.StudyService) *StudyHandler {
	return &StudyHandler{
		logger:    logger,
		studyServ: studyServ,
	}
}

// LaunchRun maneja POST /runs.
func (h *StudyHandler) LaunchRun(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		SurveyID   string   `json:"survey_id" binding:"required"`
		SegmentIDs []string `json:"segment_ids" binding:"required,min=1"`
		SampleSize int      `json:"sample_size" binding:"required"`
		Seed       uint64   `json:"seed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid launch run request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	run, err := h.studyServ.Launch(c.Request.Context(), service.LaunchInput{
		UserID:     claims.UserID,
		SurveyID:   req.SurveyID,
		SegmentIDs: req.SegmentIDs,
		SampleSize: req.SampleSize,
		Seed:       req.Seed,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many runs"})
		case errors.Is(err, service.ErrSurveyNotFound), errors.Is(err, service.ErrSegmentsNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, simulation.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("launch run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not launch run"})
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// ListRuns maneja GET /runs.
func (h *StudyHandler) ListRuns(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	runs, err := h.studyServ.ListRuns(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun maneja GET /runs/:id.
func (h *StudyHandler) GetRun(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	run, err := h.studyServ.GetRun(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		h.respondRunError(c, err, "get run failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

// GetRunResult maneja GET /runs/:id/result.
func (h *StudyHandler) GetRunResult(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	result, err := h.studyServ.GetResult(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		h.respondRunError(c, err, "get run result failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// CancelRun maneja POST /runs/:id/cancel.
func (h *StudyHandler) CancelRun(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	if err := h.studyServ.CancelRun(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

func (h *StudyHandler) respondRunError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch run"})
	}
}
