package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/pkg/logger"
)

// GetDocumentsHandler lists ingested documents, newest first. The optional
// title query parameter filters by substring match.
func GetDocumentsHandler(c echo.Context) error {
	type documentData struct {
		ID      string    `json:"id"`
		Title   string    `json:"title"`
		Created time.Time `json:"created"`
		Summary string    `json:"summary"`
		Size    int64     `json:"size"`
	}

	titleFilter := c.QueryParam("title")

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	docs, err := app.Storage.ListDocuments(ctx, titleFilter)
	if err != nil {
		logger.Error("Failed to list documents", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	resp := make([]documentData, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documentData{
			ID:      doc.ID,
			Title:   doc.Title,
			Created: doc.Created,
			Summary: doc.Summary,
			Size:    doc.Size,
		})
	}

	return c.JSON(http.StatusOK, resp)
}
