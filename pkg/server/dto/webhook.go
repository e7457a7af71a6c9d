package dto

import "github.com/aniwise/aniwise/pkg/recommend"

// WebhookRequest is the inbound conversational-platform envelope. Only the
// query text is consumed; everything else is opaque to the pipeline.
type WebhookRequest struct {
	QueryResult *QueryResult `json:"queryResult" binding:"required"`
}

// QueryResult carries the user's free-text query.
type QueryResult struct {
	QueryText string `json:"queryText"`
}

// WebhookResponse is the outbound envelope: a primary text field plus a
// structured side payload the platform renders. The shape is stable across
// success, no-results, and failure outcomes; only content differs.
type WebhookResponse struct {
	FulfillmentText string          `json:"fulfillmentText"`
	Payload         *WebhookPayload `json:"payload,omitempty"`
}

// WebhookPayload is the structured side channel.
type WebhookPayload struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	RequestedCount  int                        `json:"requested_count"`
	DeliveredCount  int                        `json:"delivered_count"`
}

// ErrorResponse represents an error response for malformed inbound requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
