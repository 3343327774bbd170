package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/internal/server/middleware"
	serverutil "github.com/marula-ai/marula/internal/server/util"
	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/logger"
)

// QueryHandler answers a question against the knowledge graph. Every run
// is recorded in the conversation history, including failed ones, so the
// history always mirrors what the user saw.
func QueryHandler(c echo.Context) error {
	type queryRequest struct {
		Query          string `json:"query" validate:"required"`
		ConversationID string `json:"conversation_id"`
	}

	type queryResponse struct {
		ConversationID string            `json:"conversation_id,omitempty"`
		Response       string            `json:"response"`
		GraphData      *common.GraphData `json:"graph_data,omitempty"`
		Metrics        *ai.ModelMetrics  `json:"metrics,omitempty"`
	}

	data := new(queryRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Response: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Response: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	conversationID := data.ConversationID
	if conversationID == "" {
		id, err := serverutil.NewConversationID()
		if err != nil {
			logger.Error("Failed to generate conversation id", "err", err)
			return c.JSON(http.StatusInternalServerError, queryResponse{
				Response: "Internal server error",
			})
		}
		conversationID = id
	}

	result, err := app.Engine.Answer(ctx, data.Query)
	if err != nil {
		logger.Error("[Query] Retrieval failed", "err", err)
		serverutil.RecordExchange(ctx, app.Storage, conversationID, data.Query, ai.ApologyResponse)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			ConversationID: conversationID,
			Response:       ai.ApologyResponse,
		})
	}

	serverutil.RecordExchange(ctx, app.Storage, conversationID, data.Query, result.Response)

	metrics := app.AiClient.GetMetrics()
	return c.JSON(http.StatusOK, queryResponse{
		ConversationID: conversationID,
		Response:       result.Response,
		GraphData:      result.GraphData,
		Metrics:        &metrics,
	})
}
