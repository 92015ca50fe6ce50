package models

import "time"

// IzinStatus is the lifecycle state of a permission record. Records start
// pending and move exactly once to approved or rejected.
type IzinStatus string

const (
	IzinStatusPending  IzinStatus = "pending"
	IzinStatusApproved IzinStatus = "approved"
	IzinStatusRejected IzinStatus = "rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s IzinStatus) Valid() bool {
	switch s {
	case IzinStatusPending, IzinStatusApproved, IzinStatusRejected:
		return true
	}
	return false
}

// Izin is one submitted permission request and its approval lifecycle.
type Izin struct {
	ID         string     `db:"id" json:"id"`
	NIS        string     `db:"nis" json:"nis"`
	Nama       string     `db:"nama" json:"nama"`
	Absen      int        `db:"absen" json:"absen"`
	Kelas      string     `db:"kelas" json:"kelas"`
	Sangga     string     `db:"sangga" json:"sangga"`
	PKKelas    string     `db:"pk_kelas" json:"pk_kelas"`
	Alasan     string     `db:"alasan" json:"alasan"`
	Status     IzinStatus `db:"status" json:"status"`
	VerifiedBy *string    `db:"verified_by" json:"verified_by"`
	VerifiedAt *time.Time `db:"verified_at" json:"verified_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// AllowedKelas is the fixed set of valid class codes after normalization.
var AllowedKelas = map[string]struct{}{
	"X1": {}, "X2": {}, "X3": {}, "X4": {},
	"X5": {}, "X6": {}, "X7": {}, "X8": {},
}

// Sangga names accepted by the submission form.
var AllowedSangga = map[string]struct{}{
	"Pendobrak": {}, "Penegas": {}, "Perintis": {}, "Pencoba": {}, "Pelaksana": {},
}

// Pagination carries list metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
