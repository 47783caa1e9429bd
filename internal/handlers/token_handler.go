package handlers

import (
	"net/http"

	"avatar-relay/internal/services"

	"github.com/rs/zerolog"
)

// TokenHandler relays avatar session-token requests
type TokenHandler struct {
	upstream services.Upstream
	tokenURL string
	apiKey   string
	logger   zerolog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(upstream services.Upstream, tokenURL, apiKey string, logger zerolog.Logger) *TokenHandler {
	return &TokenHandler{
		upstream: upstream,
		tokenURL: tokenURL,
		apiKey:   apiKey,
		logger:   logger.With().Str("handler", "token").Logger(),
	}
}

// GetToken godoc
// @Summary Create avatar session token
// @Description Requests a short-lived streaming token from the avatar provider with the server-held API key. The provider's status and body are returned unchanged.
// @Tags avatar
// @Produce json
// @Success 200 {object} object "Provider token response"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/heygen/get-token [post]
func (h *TokenHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	resp, err := h.upstream.Send(r.Context(), services.UpstreamRequest{
		Operation: "create_token",
		Provider:  services.ProviderHeygen,
		Method:    http.MethodPost,
		URL:       h.tokenURL,
		Headers:   services.APIKeyAuth(h.apiKey),
	})
	if err != nil {
		services.RequestLogger(r.Context(), h.logger).Error().Err(err).Msg("token request failed")
		sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if resp.Status >= http.StatusBadRequest {
		services.RequestLogger(r.Context(), h.logger).Warn().Int("status", resp.Status).Msg("avatar provider rejected token request")
	}

	sendRaw(w, resp.Status, resp.Body)
}
