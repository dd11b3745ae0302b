package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "docintake/docs" // registers the OpenAPI document
	"docintake/internal/handler"
	"docintake/internal/middleware"
	"docintake/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Document *handler.DocumentHandler
	Session  *handler.SessionHandler
	Settings *handler.SettingsHandler
	Health   *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Sessionless endpoints with bare request and response bodies
	api := r.Group("/api")
	api.POST("/process-document", h.Document.ProcessDocument)
	api.POST("/analyze-with-claude", h.Document.AnalyzeWithClaude)

	v1 := api.Group("/v1")

	settings := v1.Group("/settings")
	settings.GET("/:profile", h.Settings.Get)
	settings.PUT("/:profile", h.Settings.Save)
	settings.DELETE("/:profile", h.Settings.Delete)

	v1.POST("/sessions", h.Session.Create)

	// Session routes - require the token issued for this session
	sessions := v1.Group("/sessions/:id")
	sessions.Use(middleware.SessionAuth(authSvc))
	sessions.GET("", h.Session.Get)
	sessions.DELETE("", h.Session.Delete)
	sessions.PUT("/config", h.Session.Configure)
	sessions.POST("/document", h.Session.SelectDocument)
	sessions.POST("/extract", h.Session.Extract)
	sessions.POST("/questions", h.Session.Ask)
	sessions.GET("/questions", h.Session.History)
	sessions.POST("/cancel", h.Session.Cancel)
	sessions.POST("/reset", h.Session.Reset)
	sessions.GET("/export", h.Session.Export)

	return r
}
