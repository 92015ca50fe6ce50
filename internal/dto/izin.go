package dto

import (
	"time"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
)

// CreateIzinRequest is the submission payload. Absen arrives as a string so
// the form can send it verbatim; the service normalizes it into a number.
type CreateIzinRequest struct {
	NIS     string `json:"nis"`
	Nama    string `json:"nama"`
	Absen   string `json:"absen"`
	Kelas   string `json:"kelas"`
	Sangga  string `json:"sangga"`
	PKKelas string `json:"pk_kelas"`
	Alasan  string `json:"alasan"`
}

// VerifyIzinRequest approves or rejects a pending record.
type VerifyIzinRequest struct {
	Status     string `json:"status"`
	VerifiedBy string `json:"verified_by"`
}

// IzinResponse is the record as exposed over HTTP.
type IzinResponse struct {
	ID         string            `json:"id"`
	NIS        string            `json:"nis"`
	Nama       string            `json:"nama"`
	Absen      int               `json:"absen"`
	Kelas      string            `json:"kelas"`
	Sangga     string            `json:"sangga"`
	PKKelas    string            `json:"pk_kelas"`
	Alasan     string            `json:"alasan"`
	Status     models.IzinStatus `json:"status"`
	VerifiedBy *string           `json:"verified_by"`
	VerifiedAt *time.Time        `json:"verified_at"`
	CreatedAt  time.Time         `json:"created_at"`
}

// FromIzin maps a model onto the response shape.
func FromIzin(izin *models.Izin) IzinResponse {
	return IzinResponse{
		ID:         izin.ID,
		NIS:        izin.NIS,
		Nama:       izin.Nama,
		Absen:      izin.Absen,
		Kelas:      izin.Kelas,
		Sangga:     izin.Sangga,
		PKKelas:    izin.PKKelas,
		Alasan:     izin.Alasan,
		Status:     izin.Status,
		VerifiedBy: izin.VerifiedBy,
		VerifiedAt: izin.VerifiedAt,
		CreatedAt:  izin.CreatedAt,
	}
}

// PreviewRequest starts (or re-renders) a letter preview session.
type PreviewRequest struct {
	NIS     string `json:"nis"`
	Nama    string `json:"nama"`
	Absen   string `json:"absen"`
	Kelas   string `json:"kelas"`
	Sangga  string `json:"sangga"`
	PKKelas string `json:"pk_kelas"`
	Alasan  string `json:"alasan"`
	// IzinID ties the preview to a stored record when known. When empty the
	// service attempts a best-effort match by NIS + nama + kelas.
	IzinID string `json:"izin_id"`
}

// PreviewResponse returns the rendered preview and the session's current
// resolution state.
type PreviewResponse struct {
	SessionID     string  `json:"session_id"`
	State         string  `json:"state"`
	IzinID        string  `json:"izin_id,omitempty"`
	Status        string  `json:"status,omitempty"`
	VerifiedBy    *string `json:"verified_by,omitempty"`
	CanExport     bool    `json:"can_export"`
	PreviewBase64 string  `json:"preview_base64"`
}

// RefreshResponse reports resolution state after an explicit refresh.
type RefreshResponse struct {
	SessionID  string  `json:"session_id"`
	State      string  `json:"state"`
	IzinID     string  `json:"izin_id,omitempty"`
	Status     string  `json:"status,omitempty"`
	VerifiedBy *string `json:"verified_by,omitempty"`
	CanExport  bool    `json:"can_export"`
}
