package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/izin-pramuka-api/internal/dto"
	"github.com/noah-isme/izin-pramuka-api/internal/models"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
	"github.com/noah-isme/izin-pramuka-api/pkg/response"
)

type izinService interface {
	Create(ctx context.Context, req dto.CreateIzinRequest) (*models.Izin, error)
	Get(ctx context.Context, id string) (*models.Izin, error)
	ListByNIS(ctx context.Context, nis, status string) ([]models.Izin, error)
	Verify(ctx context.Context, id string, req dto.VerifyIzinRequest) (*models.Izin, error)
}

// IzinHandler exposes permission record endpoints.
type IzinHandler struct {
	izin izinService
}

// NewIzinHandler constructs IzinHandler.
func NewIzinHandler(izin izinService) *IzinHandler {
	return &IzinHandler{izin: izin}
}

// Create godoc
// @Summary Submit a permission request
// @Tags Izin
// @Accept json
// @Produce json
// @Param payload body dto.CreateIzinRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /izin [post]
func (h *IzinHandler) Create(c *gin.Context) {
	var req dto.CreateIzinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	izin, err := h.izin.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromIzin(izin))
}

// Get godoc
// @Summary Get one permission record
// @Tags Izin
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /izin/{id} [get]
func (h *IzinHandler) Get(c *gin.Context) {
	izin, err := h.izin.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromIzin(izin), nil)
}

// List godoc
// @Summary List a submitter's permission records
// @Tags Izin
// @Produce json
// @Param nis query string true "Submitter NIS"
// @Param status query string false "Filter by status (pending, approved, rejected)"
// @Success 200 {object} response.Envelope
// @Router /izin [get]
func (h *IzinHandler) List(c *gin.Context) {
	list, err := h.izin.ListByNIS(c.Request.Context(), c.Query("nis"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.IzinResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromIzin(&list[i]))
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Verify godoc
// @Summary Approve or reject a pending record
// @Tags Izin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param payload body dto.VerifyIzinRequest true "Verification payload"
// @Success 200 {object} response.Envelope
// @Router /izin/{id}/verify [patch]
func (h *IzinHandler) Verify(c *gin.Context) {
	var req dto.VerifyIzinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	izin, err := h.izin.Verify(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FromIzin(izin), nil)
}
