package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/pkg/logger"
)

// GetDocumentContentHandler reconstructs the ingested text of a document
// by concatenating its chunks in position order.
func GetDocumentContentHandler(c echo.Context) error {
	type getContentParams struct {
		DocID string `param:"id" validate:"required"`
	}

	type getContentResponse struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}

	params := new(getContentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, err := app.Storage.GetDocument(ctx, params.DocID)
	if err != nil {
		logger.Error("Failed to get document", "doc_id", params.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	if doc == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Document not found"})
	}

	chunks, err := app.Storage.GetDocumentChunks(ctx, params.DocID)
	if err != nil {
		logger.Error("Failed to get document chunks", "doc_id", params.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}

	return c.JSON(http.StatusOK, getContentResponse{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: strings.Join(contents, "\n\n"),
	})
}
