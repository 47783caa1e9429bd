package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"avatar-relay/internal/models"
	"avatar-relay/internal/services"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// maxBodyBytes bounds inbound chat payloads
const maxBodyBytes = 1 << 20

// ragChatSchema describes {"text": Conversation} and {"text": "message"}
const ragChatSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {
      "oneOf": [
        {"type": "string"},
        {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["role", "content"],
            "properties": {
              "role": {"type": "string", "enum": ["user", "assistant", "system"]},
              "content": {"type": "string"}
            }
          }
        }
      ]
    }
  }
}`

// Forwarder relays a raw chat payload to the language-model provider
type Forwarder interface {
	Forward(ctx context.Context, payload json.RawMessage) (*services.UpstreamResponse, error)
}

// ChatResponder answers a conversation
type ChatResponder interface {
	Respond(ctx context.Context, conv models.Conversation) (string, error)
}

// ChatHandler handles the pass-through and retrieval-augmented chat endpoints
type ChatHandler struct {
	forwarder Forwarder
	chat      ChatResponder
	schema    *gojsonschema.Schema
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewChatHandler creates a new chat handler. timeout bounds one retrieval-augmented
// turn across all of its upstream calls; zero leaves it unbounded.
func NewChatHandler(forwarder Forwarder, chat ChatResponder, timeout time.Duration, logger zerolog.Logger) (*ChatHandler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(ragChatSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat request schema: %w", err)
	}

	return &ChatHandler{
		forwarder: forwarder,
		chat:      chat,
		schema:    schema,
		timeout:   timeout,
		logger:    logger.With().Str("handler", "chat").Logger(),
	}, nil
}

// Forward godoc
// @Summary Forward chat payload
// @Description Forwards the JSON body unchanged to the language-model provider's responses endpoint. The provider's status and body are returned unchanged.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body object true "Responses API payload"
// @Success 200 {object} object "Provider response"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/openai/chat [post]
func (h *ChatHandler) Forward(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		services.RequestLogger(r.Context(), h.logger).Error().Err(err).Msg("failed to read request body")
		sendError(w, http.StatusInternalServerError, "failed to read request body: "+err.Error())
		return
	}
	if !json.Valid(payload) {
		sendError(w, http.StatusInternalServerError, "request body is not valid JSON")
		return
	}

	resp, err := h.forwarder.Forward(r.Context(), payload)
	if err != nil {
		services.RequestLogger(r.Context(), h.logger).Error().Err(err).Msg("chat forward failed")
		sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sendRaw(w, resp.Status, resp.Body)
}

// Respond godoc
// @Summary Chat with retrieval
// @Description Answers the conversation in the configured persona, consulting the document index when the turn needs it. "text" may be a conversation or a single user message.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.RAGChatRequest true "Conversation"
// @Success 200 {object} models.RAGChatResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "Upstream failure or chat timeout"
// @Router /api/openai/response [post]
func (h *ChatHandler) Respond(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.validate(body); err != nil {
		services.RequestLogger(r.Context(), h.logger).Debug().Err(err).Msg("rejected chat request")
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	var request models.RAGChatRequest
	if err := json.Unmarshal(body, &request); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	answer, err := h.chat.Respond(ctx, request.Text.Conversation)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequestBody) {
			sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			services.RequestLogger(ctx, h.logger).Error().Err(err).Dur("timeout", h.timeout).Msg("chat turn timed out")
			sendError(w, http.StatusInternalServerError, fmt.Sprintf("chat request timed out after %s", h.timeout))
			return
		}
		services.RequestLogger(r.Context(), h.logger).Error().Err(err).Msg("chat orchestration failed")
		sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sendJSON(w, http.StatusOK, models.RAGChatResponse{Response: answer})
}

// validate checks body against the chat request schema
func (h *ChatHandler) validate(body []byte) error {
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return services.InvalidRequestError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return services.InvalidRequestError(strings.Join(problems, "; "))
}
