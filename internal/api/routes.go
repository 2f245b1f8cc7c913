// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/filedrop/backend/internal/rules"
	"github.com/filedrop/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	Catalog           Catalog
	Rules             *rules.Rules
	Events            *EventHub
	Version           string
	AllowFileDeletion bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Upload UploadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		Upload: NewUploadHandler(deps.Store, deps.Catalog, deps.Rules, deps.Events),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, deps *Dependencies, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)

	if deps.Events != nil {
		apiGroup.GET("/ws/uploads", deps.Events.HandleWebSocket)
	}

	files := apiGroup.Group("/files")
	files.POST("/upload", handlers.Upload.HandleUploadFile)
	files.POST("/upload/batch", handlers.Upload.HandleUploadBatch)
	files.GET("/recent", handlers.Upload.HandleRecentFiles)
	files.GET("/:id", handlers.Upload.HandleGetFile)
	files.PUT("/:id", handlers.Upload.HandleRenameFile)

	if deps.AllowFileDeletion {
		files.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	}
}
