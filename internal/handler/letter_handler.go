package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/izin-pramuka-api/internal/dto"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
	"github.com/noah-isme/izin-pramuka-api/pkg/response"
)

type renderService interface {
	Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error)
	Refresh(ctx context.Context, sessionID string) (*dto.RefreshResponse, error)
	Export(ctx context.Context, sessionID string) (string, []byte, error)
}

// LetterHandler exposes letter preview and export endpoints.
type LetterHandler struct {
	render renderService
}

// NewLetterHandler constructs LetterHandler.
func NewLetterHandler(render renderService) *LetterHandler {
	return &LetterHandler{render: render}
}

// Preview godoc
// @Summary Render a letter preview and open a session
// @Tags Letters
// @Accept json
// @Produce json
// @Param payload body dto.PreviewRequest true "Letter fields"
// @Success 200 {object} response.Envelope
// @Router /letters/preview [post]
func (h *LetterHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	preview, err := h.render.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Refresh godoc
// @Summary Re-check a session's record status
// @Tags Letters
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /letters/{sid}/refresh [post]
func (h *LetterHandler) Refresh(c *gin.Context) {
	state, err := h.render.Refresh(c.Request.Context(), c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Export godoc
// @Summary Export the letter as PDF, gated on approval
// @Tags Letters
// @Produce application/pdf
// @Param sid path string true "Session ID"
// @Success 200 {file} binary
// @Failure 409 {object} response.Envelope
// @Router /letters/{sid}/export [post]
func (h *LetterHandler) Export(c *gin.Context) {
	filename, payload, err := h.render.Export(c.Request.Context(), c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", payload)
}
