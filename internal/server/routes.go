package server

import (
	"github.com/marula-ai/marula/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Document routes
	apiRoutes.GET("/documents", routes.GetDocumentsHandler)
	apiRoutes.POST("/documents", routes.UploadDocumentsHandler)
	apiRoutes.GET("/documents/:id/chunks", routes.GetDocumentChunksHandler)
	apiRoutes.GET("/documents/:id/content", routes.GetDocumentContentHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler)
	apiRoutes.GET("/chats/:conversation_id", routes.GetChatHandler)
}
