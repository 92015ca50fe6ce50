package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
)

func TestVerifyHandlerShow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifiedBy := "Pak Guru"
	verifiedAt := time.Now()
	mockSvc := &izinServiceMock{getResp: &models.Izin{
		ID:         "izin-1",
		NIS:        "12345",
		Nama:       "Ana",
		Kelas:      "X1",
		Sangga:     "Pendobrak",
		Alasan:     "sakit",
		Status:     models.IzinStatusApproved,
		VerifiedBy: &verifiedBy,
		VerifiedAt: &verifiedAt,
	}}
	handler := NewVerifyHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/verify/izin-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "izin-1"}}

	handler.Show(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "approved", envelope.Data["status"])
	assert.Equal(t, "Pak Guru", envelope.Data["verified_by"])

	// The public view never exposes the submitter's NIS or reason.
	assert.NotContains(t, envelope.Data, "nis")
	assert.NotContains(t, envelope.Data, "alasan")
}

func TestVerifyHandlerShowNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &izinServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "izin tidak ditemukan")}
	handler := NewVerifyHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/verify/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Show(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
