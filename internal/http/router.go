package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowd-sim/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	catalogH *CatalogHandler,
	studyH *StudyHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)

	protected := r.Group("/", JWTAuthMiddleware(jwtSvc))

	segments := protected.Group("/segments")
	segments.POST("", catalogH.CreateSegment)
	segments.GET("", catalogH.ListSegments)
	segments.GET("/:id", catalogH.GetSegment)

	surveys := protected.Group("/surveys")
	surveys.POST("", catalogH.CreateSurvey)
	surveys.GET("", catalogH.ListSurveys)
	surveys.GET("/:id", catalogH.GetSurvey)

	sources := protected.Group("/data-sources")
	sources.POST("", catalogH.CreateDataSource)
	sources.GET("", catalogH.ListDataSources)
	sources.POST("/:id/embeddings", catalogH.AddInsightEmbedding)
	sources.POST("/insights/search", catalogH.SearchInsights)

	runs := protected.Group("/runs")
	runs.POST("", studyH.LaunchRun)
	runs.GET("", studyH.ListRuns)
	runs.GET("/:id", studyH.GetRun)
	runs.GET("/:id/result", studyH.GetRunResult)
	runs.POST("/:id/cancel", studyH.CancelRun)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
