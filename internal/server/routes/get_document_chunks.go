package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/pkg/logger"
)

// GetDocumentChunksHandler returns a document's chunks in position order.
func GetDocumentChunksHandler(c echo.Context) error {
	type getChunksParams struct {
		DocID string `param:"id" validate:"required"`
	}

	type chunkData struct {
		ID       string `json:"id"`
		Position int    `json:"position"`
		Content  string `json:"content"`
	}

	params := new(getChunksParams)
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

	resp := make([]chunkData, 0, len(chunks))
	for _, chunk := range chunks {
		resp = append(resp, chunkData{
			ID:       chunk.ID,
			Position: chunk.Position,
			Content:  chunk.Content,
		})
	}

	return c.JSON(http.StatusOK, resp)
}
