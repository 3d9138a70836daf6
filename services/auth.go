package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CrowderSoup/smartcalendar/database"
)

// SessionKey is the storage key holding the signed-in local user.
const SessionKey = "sc_user"

const sessionTTL = 7 * 24 * time.Hour

// ErrNoSession is returned when nobody has started a local session.
var ErrNoSession = errors.New("no local session")

// LocalUser is the only user there is.
type LocalUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var defaultUser = LocalUser{ID: "local", Name: "Local User"}

// AuthService is a local sign-in: a stored flag plus a signed session token.
// It does not authenticate anyone.
type AuthService struct {
	kv        database.KeyValue
	jwtSecret []byte
}

func NewAuthService(kv database.KeyValue, secret string) *AuthService {
	return &AuthService{kv: kv, jwtSecret: []byte(secret)}
}

// StartSession writes the local user flag and returns a session token.
func (s *AuthService) StartSession(ctx context.Context) (string, LocalUser, error) {
	data, err := json.Marshal(defaultUser)
	if err != nil {
		return "", LocalUser{}, fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, SessionKey, string(data)); err != nil {
		return "", LocalUser{}, err
	}

	token, err := s.CreateJWT(defaultUser)
	if err != nil {
		return "", LocalUser{}, err
	}
	return token, defaultUser, nil
}

// EndSession removes the local user flag. Outstanding tokens stop verifying.
func (s *AuthService) EndSession(ctx context.Context) error {
	return s.kv.Remove(ctx, SessionKey)
}

// CurrentUser returns the stored local user or ErrNoSession.
func (s *AuthService) CurrentUser(ctx context.Context) (LocalUser, error) {
	raw, ok, err := s.kv.Get(ctx, SessionKey)
	if err != nil {
		return LocalUser{}, err
	}
	if !ok {
		return LocalUser{}, ErrNoSession
	}
	var user LocalUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return LocalUser{}, fmt.Errorf("%w: stored user is unreadable", ErrNoSession)
	}
	return user, nil
}

// VerifySession checks the token and that the session flag is still present.
func (s *AuthService) VerifySession(ctx context.Context, tokenString string) (LocalUser, error) {
	userID, err := s.VerifyJWT(tokenString)
	if err != nil {
		return LocalUser{}, err
	}
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return LocalUser{}, err
	}
	if user.ID != userID {
		return LocalUser{}, errors.New("token does not match the current session")
	}
	return user, nil
}

// CreateJWT generates a session token for user
func (s *AuthService) CreateJWT(user LocalUser) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"exp":  time.Now().Add(sessionTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyJWT verifies a session token and returns the user id
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("sub claim missing")
	}
	return sub, nil
}
