package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/xtralabs/xtra-server/internal/auth"
	"github.com/xtralabs/xtra-server/internal/domain"
	apperrors "github.com/xtralabs/xtra-server/internal/errors"
	"github.com/xtralabs/xtra-server/internal/metrics"
)

// signupRequest is the validated body for POST /auth/signup.
type signupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"omitempty,max=100"`
}

// loginRequest is the validated body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userView is the account representation returned to clients.
type userView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// authResponse is the body returned by signup and login.
type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// meResponse is the body returned by GET /auth/me.
type meResponse struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	DisplayName       string `json:"displayName"`
	BusinessProfileID string `json:"businessProfileId,omitempty"`
}

// AuthHandler handles account signup, login and introspection.
type AuthHandler struct {
	service   *auth.Service
	validate  *validator.Validate
	rateLimit int
	logger    *slog.Logger
}

// AuthHandlerOption configures the AuthHandler.
type AuthHandlerOption func(*AuthHandler)

// WithRateLimit sets the per-IP request limit per minute on credential
// endpoints (0 disables limiting).
func WithRateLimit(perMinute int) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.rateLimit = perMinute
	}
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *auth.Service, logger *slog.Logger, opts ...AuthHandlerOption) *AuthHandler {
	h := &AuthHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Mount registers the auth routes on the router.
func (h *AuthHandler) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.rateLimit > 0 {
			r.Use(httprate.LimitByIP(h.rateLimit, time.Minute))
		}
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
	})
	r.Get("/auth/me", h.Me)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.decode(r, &req); err != nil {
		metrics.RecordSignup("error")
		writeError(w, h.logger, err)
		return
	}

	result, err := h.service.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeAlreadyExists) {
			metrics.RecordSignup("conflict")
		} else {
			metrics.RecordSignup("error")
		}
		writeError(w, h.logger, err)
		return
	}

	metrics.RecordSignup("success")
	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.RecordLogin("failure")
		writeError(w, h.logger, err)
		return
	}

	metrics.RecordLogin("success")
	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.service.Me(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:                user.ID,
		Email:             user.Email,
		DisplayName:       user.DisplayName,
		BusinessProfileID: user.BusinessProfileID,
	})
}

// decode parses and validates a JSON request body, rejecting unknown fields.
func (h *AuthHandler) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	if err := h.validate.Struct(v); err != nil {
		return apperrors.InvalidInput("Email and password are required")
	}
	return nil
}

func newAuthResponse(result *auth.Result) authResponse {
	return authResponse{
		Token: result.Token,
		User:  newUserView(result.User),
	}
}

func newUserView(user *domain.User) userView {
	return userView{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperrors.Unauthorized("missing authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", apperrors.Unauthorized("invalid authorization header")
	}
	return token, nil
}
