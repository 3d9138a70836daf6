package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/smartcalendar/services"
)

type contextKey string

const userContextKey contextKey = "user"

type AuthMiddleware struct {
	authService *services.AuthService
	log         zerolog.Logger
}

func NewAuthMiddleware(authService *services.AuthService, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         log,
	}
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set headers
// on websocket upgrades, so a token query parameter is accepted as well.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		token := r.URL.Query().Get("token")
		return token, token != ""
	}

	authParts := strings.Split(authHeader, " ")
	if len(authParts) != 2 || authParts[0] != "Bearer" {
		return "", false
	}
	return authParts[1], true
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, apiError{Code: "UNAUTHORIZED", Message: "missing or malformed authorization"})
			return
		}

		user, err := m.authService.VerifySession(r.Context(), token)
		if err != nil {
			m.log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session")
			writeError(w, http.StatusUnauthorized, apiError{Code: "UNAUTHORIZED", Message: "invalid session"})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (services.LocalUser, bool) {
	user, ok := ctx.Value(userContextKey).(services.LocalUser)
	return user, ok
}
