package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/pkg/logger"
)

// DeleteDocumentHandler removes a document with its chunks, mention edges
// and person graph. Shared entity nodes survive.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		DocID string `param:"id" validate:"required"`
	}

	params := new(deleteDocumentParams)
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

	if err := app.Storage.DeleteDocument(ctx, params.DocID); err != nil {
		logger.Error("Failed to delete document", "doc_id", params.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Document deleted"})
}
