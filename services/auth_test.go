package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrowderSoup/smartcalendar/database"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := database.NewMemoryKV()
	auth := NewAuthService(kv, "test-secret")

	_, err := auth.CurrentUser(ctx)
	assert.True(t, errors.Is(err, ErrNoSession))

	token, user, err := auth.StartSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local", user.ID)
	assert.Equal(t, "Local User", user.Name)

	raw, ok, err := kv.Get(ctx, SessionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"local","name":"Local User"}`, raw)

	got, err := auth.VerifySession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, auth.EndSession(ctx))
	_, err = auth.VerifySession(ctx, token)
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestVerifyJWTRejectsForeignTokens(t *testing.T) {
	auth := NewAuthService(database.NewMemoryKV(), "test-secret")
	other := NewAuthService(database.NewMemoryKV(), "other-secret")

	token, err := other.CreateJWT(LocalUser{ID: "local"})
	require.NoError(t, err)
	_, err = auth.VerifyJWT(token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "local",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.VerifyJWT(signed)
	assert.Error(t, err)

	_, err = auth.VerifyJWT("not-a-token")
	assert.Error(t, err)
}

func TestVerifyJWTRequiresSubject(t *testing.T) {
	auth := NewAuthService(database.NewMemoryKV(), "test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = auth.VerifyJWT(signed)
	assert.Error(t, err)
}
