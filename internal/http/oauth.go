package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/xtralabs/xtra-server/internal/canva"
	apperrors "github.com/xtralabs/xtra-server/internal/errors"
	"github.com/xtralabs/xtra-server/internal/metrics"
	"github.com/xtralabs/xtra-server/internal/pending"
	"github.com/xtralabs/xtra-server/internal/pkce"
)

// refreshRequest is the validated body for POST /auth/canva/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// urlResponse is the body returned by GET /auth/canva/url.
type urlResponse struct {
	URL string `json:"url"`
}

// tokensResponse wraps a provider token set for the client.
type tokensResponse struct {
	Message string `json:"message"`
	Tokens  any    `json:"tokens"`
}

// OAuthHandler drives the authorization-code-with-PKCE flow against Canva.
type OAuthHandler struct {
	client   *canva.Client
	store    pending.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(client *canva.Client, store pending.Store, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		client:   client,
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// Mount registers the OAuth routes on the router.
func (h *OAuthHandler) Mount(r chi.Router) {
	r.Get("/auth/canva/url", h.AuthorizationURL)
	r.Get("/oauth/redirect", h.Redirect)
	r.Post("/auth/canva/refresh", h.Refresh)
}

// AuthorizationURL handles GET /auth/canva/url. It generates a PKCE
// triple, records state against verifier and returns the consent URL.
func (h *OAuthHandler) AuthorizationURL(w http.ResponseWriter, r *http.Request) {
	triple := pkce.Generate()

	if err := h.store.Put(r.Context(), triple.State, triple.Verifier); err != nil {
		h.logger.Error("failed to store pending authorization", "error", err)
		writeError(w, h.logger, apperrors.Internal("failed to start authorization", err))
		return
	}

	metrics.RecordFlowStarted()
	writeJSON(w, http.StatusOK, urlResponse{URL: h.client.AuthorizationURL(triple)})
}

// Redirect handles GET /oauth/redirect, the callback the provider invokes.
// Validation order: provider error parameter first, then presence of code
// and state, then state resolution. Only then is the code exchanged.
func (h *OAuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if provErr := q.Get("error"); provErr != "" {
		h.logger.Warn("provider returned error on redirect", "error", provErr)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("Canva error: %s", provErr)})
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing code or state"})
		return
	}

	verifier, err := h.store.Take(r.Context(), state)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid state or session expired"})
			return
		}
		h.logger.Error("failed to take pending authorization", "error", err)
		writeError(w, h.logger, apperrors.Internal("failed to resolve authorization state", err))
		return
	}

	tokens, err := h.client.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		metrics.RecordExchange("authorization_code", "failure")
		h.writeExchangeError(w, "Failed to exchange token", err)
		return
	}

	metrics.RecordExchange("authorization_code", "success")
	writeJSON(w, http.StatusOK, tokensResponse{Message: "Authentication successful!", Tokens: tokens})
}

// Refresh handles POST /auth/canva/refresh.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing refresh_token"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing refresh_token"})
		return
	}

	tokens, err := h.client.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		metrics.RecordExchange("refresh_token", "failure")
		h.writeExchangeError(w, "Failed to refresh token", err)
		return
	}

	metrics.RecordExchange("refresh_token", "success")
	writeJSON(w, http.StatusOK, tokensResponse{Message: "Token refreshed successfully!", Tokens: tokens})
}

// writeExchangeError surfaces a provider exchange failure. The provider's
// own diagnostic detail is passed through rather than re-interpreted.
func (h *OAuthHandler) writeExchangeError(w http.ResponseWriter, message string, err error) {
	var exchErr *canva.ExchangeError
	if errors.As(err, &exchErr) {
		h.logger.Error("token exchange failed",
			"status", exchErr.StatusCode,
			"body", exchErr.Body,
			"error", exchErr.Err,
		)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: message, Details: exchErr.Body})
		return
	}
	writeError(w, h.logger, apperrors.Upstream(message, err))
}
