package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/smartcalendar/services"
)

// AuthHandler handles the local sign-in endpoints
type AuthHandler struct {
	authService *services.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// Start signs in the local user and returns a session token
func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	token, user, err := h.authService.StartSession(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to start session")
		writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "failed to start session"})
		return
	}
	h.log.Info().Str("user", user.ID).Msg("session started")
	writeSuccess(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// SignOut removes the local user flag
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.EndSession(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to end session")
		writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "failed to end session"})
		return
	}
	h.log.Info().Msg("session ended")
	writeSuccess(w, http.StatusOK, nil)
}

// VerifyToken checks the bearer token against the current session
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, apiError{Code: "UNAUTHORIZED", Message: "missing authorization header"})
		return
	}

	user, err := h.authService.VerifySession(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, apiError{Code: "UNAUTHORIZED", Message: "invalid session"})
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": user, "valid": true})
}
