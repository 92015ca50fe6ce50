package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
	"github.com/noah-isme/izin-pramuka-api/pkg/config"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
)

func testAuthConfig(t *testing.T) config.AuthConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	require.NoError(t, err)
	return config.AuthConfig{
		JWTSecret:         "test-secret",
		TokenExpiry:       time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
	}
}

func TestAuthServiceLogin(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t), validator.New(), zap.NewNop())

	out, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "rahasia"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, int64(3600), out.ExpiresIn)

	claims, err := svc.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "salah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "intruder", Password: "rahasia"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginValidatesPayload(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t), validator.New(), zap.NewNop())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	cfg := testAuthConfig(t)
	issuer := NewAuthService(cfg, validator.New(), zap.NewNop())
	out, err := issuer.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "rahasia"})
	require.NoError(t, err)

	cfg.JWTSecret = "different-secret"
	verifier := NewAuthService(cfg, validator.New(), zap.NewNop())
	_, err = verifier.ValidateToken(out.AccessToken)
	require.Error(t, err)
}
