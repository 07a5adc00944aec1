package handlers

import (
	"errors"
	"net/http"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/api/auth"
)

// AuthHandler handles POST /api/auth/login.
type AuthHandler struct {
	credentials auth.Credentials
	jwtService  *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(credentials auth.Credentials, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{credentials: credentials, jwtService: jwtService}
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the admin credentials and returns an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.WarnCtx(r.Context(), "Admin login rejected", "username", req.Username)
			Unauthorized(w, "Invalid username or password")
			return
		}
		InternalServerError(w, "Failed to verify credentials")
		return
	}

	token, err := h.jwtService.Issue(req.Username)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to issue token", logger.Err(err))
		InternalServerError(w, "Failed to issue token")
		return
	}

	logger.InfoCtx(r.Context(), "Admin logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, okResponse(token))
}
