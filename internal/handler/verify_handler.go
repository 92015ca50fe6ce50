package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
	"github.com/noah-isme/izin-pramuka-api/pkg/response"
)

type recordGetter interface {
	Get(ctx context.Context, id string) (*models.Izin, error)
}

// VerifyHandler serves the public QR landing: anyone scanning a printed
// letter can check that the record exists and see its approval state. The
// public view deliberately omits the submitter's NIS and reason.
type VerifyHandler struct {
	izin recordGetter
}

// NewVerifyHandler constructs VerifyHandler.
func NewVerifyHandler(izin recordGetter) *VerifyHandler {
	return &VerifyHandler{izin: izin}
}

type publicVerification struct {
	ID         string            `json:"id"`
	Nama       string            `json:"nama"`
	Kelas      string            `json:"kelas"`
	Sangga     string            `json:"sangga"`
	Status     models.IzinStatus `json:"status"`
	VerifiedBy *string           `json:"verified_by"`
	VerifiedAt *time.Time        `json:"verified_at"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Show godoc
// @Summary Public verification lookup for printed letters
// @Tags Verify
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /verify/{id} [get]
func (h *VerifyHandler) Show(c *gin.Context) {
	izin, err := h.izin.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, publicVerification{
		ID:         izin.ID,
		Nama:       izin.Nama,
		Kelas:      izin.Kelas,
		Sangga:     izin.Sangga,
		Status:     izin.Status,
		VerifiedBy: izin.VerifiedBy,
		VerifiedAt: izin.VerifiedAt,
		CreatedAt:  izin.CreatedAt,
	}, nil)
}
