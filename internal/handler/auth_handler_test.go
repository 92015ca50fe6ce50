package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
)

type authServiceMock struct {
	resp *models.LoginResponse
	err  error
	last models.LoginRequest
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.last = req
	return m.resp, m.err
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{resp: &models.LoginResponse{AccessToken: "token-1", ExpiresIn: 3600}}
	handler := NewAuthHandler(mockSvc)

	body, _ := json.Marshal(models.LoginRequest{Username: "admin", Password: "rahasia"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", mockSvc.last.Username)
	assert.Contains(t, w.Body.String(), "token-1")
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "username atau password salah")}
	handler := NewAuthHandler(mockSvc)

	body, _ := json.Marshal(models.LoginRequest{Username: "admin", Password: "salah"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
