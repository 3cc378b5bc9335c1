package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"crowd-sim/internal/domain"
	"crowd-sim/internal/repository"
)

// CatalogHandler mantiene dependencias para los endpoints de segmentos,
// encuestas y fuentes de datos.
type CatalogHandler struct {
	logger   *zap.Logger
	segments repository.SegmentRepository
	surveys  repository.SurveyRepository
	sources  repository.DataSourceRepository
}

// NewCatalogHandler crea una instancia de CatalogHandler con dependencias necesarias.
func NewCatalogHandler(
	logger *zap.Logger,
	segments repository.SegmentRepository,
	surveys repository.SurveyRepository,
	sources repository.DataSourceRepository,
) *CatalogHandler {
	return &CatalogHandler{
		logger:   logger,
		segments: segments,
		surveys:  surveys,
		sources:  sources,
	}
}

// CreateSegment maneja POST /segments.
func (h *CatalogHandler) CreateSegment(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Name           string                       `json:"name" binding:"required"`
		Weight         float64                      `json:"weight"`
		Demographics   domain.SegmentDemographics   `json:"demographics"`
		Psychographics domain.SegmentPsychographics `json:"psychographics"`
		Behaviors      domain.SegmentBehaviors      `json:"behaviors"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create segment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	segment := domain.Segment{
		ID:             uuid.NewString(),
		UserID:         claims.UserID,
		Name:           req.Name,
		Weight:         req.Weight,
		Demographics:   req.Demographics,
		Psychographics: req.Psychographics,
		Behaviors:      req.Behaviors,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.segments.Create(c.Request.Context(), segment); err != nil {
		h.logger.Error("create segment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create segment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"segment": segment})
}

// ListSegments maneja GET /segments.
func (h *CatalogHandler) ListSegments(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	segments, err := h.segments.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list segments failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list segments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": segments})
}

// GetSegment maneja GET /segments/:id.
func (h *CatalogHandler) GetSegment(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	segment, err := h.segments.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "segment not found"})
			return
		}
		h.logger.Error("get segment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch segment"})
		return
	}
	if segment.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "segment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"segment": segment})
}

// CreateSurvey maneja POST /surveys.
func (h *CatalogHandler) CreateSurvey(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Name      string            `json:"name" binding:"required"`
		Objective string            `json:"objective"`
		Questions []domain.Question `json:"questions" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create survey request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	for i := range req.Questions {
		if req.Questions[i].ID == "" {
			req.Questions[i].ID = uuid.NewString()
		}
	}

	survey := domain.Survey{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		Name:      req.Name,
		Objective: req.Objective,
		Questions: req.Questions,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.surveys.Create(c.Request.Context(), survey); err != nil {
		h.logger.Error("create survey failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create survey"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"survey": survey})
}

// ListSurveys maneja GET /surveys.
func (h *CatalogHandler) ListSurveys(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	surveys, err := h.surveys.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list surveys failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

// GetSurvey maneja GET /surveys/:id.
func (h *CatalogHandler) GetSurvey(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	survey, err := h.surveys.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
			return
		}
		h.logger.Error("get survey failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch survey"})
		return
	}
	if survey.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"survey": survey})
}

// CreateDataSource maneja POST /data-sources.
func (h *CatalogHandler) CreateDataSource(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Type             string   `json:"type" binding:"required"`
		Name             string   `json:"name"`
		RelevantSegments []string `json:"relevant_segments"`
		Keywords         []string `json:"keywords"`
		Insights         []string `json:"insights"`
		Quality          string   `json:"quality"`
		Verified         bool     `json:"verified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create data source request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	source := domain.DataSource{
		ID:               uuid.NewString(),
		UserID:           claims.UserID,
		Type:             req.Type,
		Name:             req.Name,
		RelevantSegments: req.RelevantSegments,
		Keywords:         req.Keywords,
		Insights:         req.Insights,
		Quality:          req.Quality,
		Verified:         req.Verified,
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.sources.Create(c.Request.Context(), source); err != nil {
		h.logger.Error("create data source failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create data source"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data_source": source})
}

// AddInsightEmbedding maneja POST /data-sources/:id/embeddings. El embedding
// llega precalculado por el pipeline de ingesta; acá solo se persiste.
func (h *CatalogHandler) AddInsightEmbedding(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Insight   string    `json:"insight" binding:"required"`
		Embedding []float32 `json:"embedding" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid embedding request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	source, err := h.sources.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "data source not found"})
			return
		}
		h.logger.Error("get data source failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch data source"})
		return
	}
	if source.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "data source not found"})
		return
	}

	embedding := domain.InsightEmbedding{
		ID:        uuid.New(),
		SourceID:  source.ID,
		Insight:   req.Insight,
		Embedding: pgvector.NewVector(req.Embedding),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.sources.CreateEmbedding(c.Request.Context(), embedding); err != nil {
		h.logger.Error("create embedding failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store embedding"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"embedding_id": embedding.ID})
}

// SearchInsights maneja POST /data-sources/insights/search: vecinos más
// cercanos por similitud de embedding entre las fuentes del usuario.
func (h *CatalogHandler) SearchInsights(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Embedding []float32 `json:"embedding" binding:"required,min=1"`
		K         int       `json:"k"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid insight search request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	insights, err := h.sources.SearchInsights(c.Request.Context(), claims.UserID, pgvector.NewVector(req.Embedding), req.K)
	if err != nil {
		h.logger.Error("search insights failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search insights"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// ListDataSources maneja GET /data-sources.
func (h *CatalogHandler) ListDataSources(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	sources, err := h.sources.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list data sources failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list data sources"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data_sources": sources})
}
