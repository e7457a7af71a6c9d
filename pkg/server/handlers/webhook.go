package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aniwise/aniwise"
	"github.com/aniwise/aniwise/pkg/server/dto"
)

// InvalidInputMessage is the guidance text for empty or oversized queries.
const InvalidInputMessage = "Please send me an anime request under 500 characters, like \"3 action anime like Naruto\"."

// WebhookHandler handles conversational webhook requests.
type WebhookHandler struct {
	pipeline *aniwise.Pipeline
	logger   *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(pipeline *aniwise.Pipeline, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Handle handles POST /webhook. Failures surface as natural-language text in
// the same 200 response shape as success; only a request with no query field
// at all is rejected outright.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "request must carry a queryResult.queryText field",
		})
		return
	}

	result, err := h.pipeline.Recommend(c.Request.Context(), req.QueryResult.QueryText)
	if err != nil {
		if errors.Is(err, aniwise.ErrInvalidInput) {
			c.JSON(http.StatusOK, dto.WebhookResponse{
				FulfillmentText: InvalidInputMessage,
			})
			return
		}
		// Recommend only returns ErrInvalidInput today; anything else still
		// must not leak a raw fault to the platform.
		h.logger.Error("pipeline returned unexpected error", "error", err)
		c.JSON(http.StatusOK, dto.WebhookResponse{
			FulfillmentText: aniwise.ServiceDownMessage,
		})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{
		FulfillmentText: result.Text,
		Payload: &dto.WebhookPayload{
			Recommendations: result.Recommendations,
			RequestedCount:  result.RequestedCount,
			DeliveredCount:  result.DeliveredCount,
		},
	})
}
