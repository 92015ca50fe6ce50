package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/izin-pramuka-api/internal/dto"
	"github.com/noah-isme/izin-pramuka-api/internal/models"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
	"github.com/noah-isme/izin-pramuka-api/pkg/notify"
)

type izinRepository interface {
	Create(ctx context.Context, izin *models.Izin) error
	FindByID(ctx context.Context, id string) (*models.Izin, error)
	ListByNIS(ctx context.Context, nis string, status models.IzinStatus) ([]models.Izin, error)
	UpdateStatus(ctx context.Context, id string, status models.IzinStatus, verifiedBy string, verifiedAt time.Time) (*models.Izin, error)
}

type statusCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NotificationQueue is the async delivery entry point for staff alerts.
type NotificationQueue interface {
	Enqueue(msg notify.Message) error
}

// IzinService handles submission, lookup and verification of permission
// records.
type IzinService struct {
	repo     izinRepository
	cache    statusCache
	notifier NotificationQueue
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewIzinService constructs the izin service. notifier may be nil when staff
// notifications are disabled.
func NewIzinService(repo izinRepository, cache statusCache, notifier NotificationQueue, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *IzinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &IzinService{repo: repo, cache: cache, notifier: notifier, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

func cacheKey(id string) string {
	return "izin:" + id
}

// NormalizeKelas strips separators and uppercases a class code so "x-1",
// "X 1" and "x1" all collapse to "X1". Returns false when the result is not a
// known class.
func NormalizeKelas(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	kelas := b.String()
	_, ok := models.AllowedKelas[kelas]
	return kelas, ok
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validationError(message string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func requiredError(field string) *appErrors.Error {
	return validationError(fmt.Sprintf("Field %q wajib diisi.", field))
}

// Create validates the submission, persists it as pending and enqueues a
// staff notification. Notification failure never fails the submission.
func (s *IzinService) Create(ctx context.Context, req dto.CreateIzinRequest) (*models.Izin, error) {
	nis := strings.TrimSpace(req.NIS)
	nama := strings.TrimSpace(req.Nama)
	absenRaw := strings.TrimSpace(req.Absen)
	sangga := strings.TrimSpace(req.Sangga)
	pkKelas := strings.TrimSpace(req.PKKelas)
	alasan := strings.TrimSpace(req.Alasan)

	switch {
	case nis == "":
		return nil, requiredError("nis")
	case nama == "":
		return nil, requiredError("nama")
	case absenRaw == "":
		return nil, requiredError("absen")
	case strings.TrimSpace(req.Kelas) == "":
		return nil, requiredError("kelas")
	case sangga == "":
		return nil, requiredError("sangga")
	case pkKelas == "":
		return nil, requiredError("pk_kelas")
	}

	if !allDigits(nis) {
		return nil, validationError("NIS harus berupa angka.")
	}
	absen, err := strconv.Atoi(absenRaw)
	if err != nil || absen <= 0 || !allDigits(absenRaw) {
		return nil, validationError("Nomor absen harus berupa angka positif.")
	}
	kelas, ok := NormalizeKelas(req.Kelas)
	if !ok {
		return nil, validationError("Kelas tidak valid.")
	}
	if _, ok := models.AllowedSangga[sangga]; !ok {
		return nil, validationError("Sangga tidak valid.")
	}

	izin := &models.Izin{
		NIS:     nis,
		Nama:    nama,
		Absen:   absen,
		Kelas:   kelas,
		Sangga:  sangga,
		PKKelas: pkKelas,
		Alasan:  alasan,
	}
	if err := s.repo.Create(ctx, izin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gagal menyimpan izin")
	}

	if s.notifier != nil {
		if err := s.notifier.Enqueue(notify.Message{
			Nama:    izin.Nama,
			Absen:   absenRaw,
			Kelas:   izin.Kelas,
			Sangga:  izin.Sangga,
			PKKelas: izin.PKKelas,
			Alasan:  izin.Alasan,
		}); err != nil {
			s.metrics.IncNotifyFailure()
			s.logger.Warn("failed to enqueue staff notification",
				zap.String("izin_id", izin.ID), zap.Error(err))
		}
	}

	return izin, nil
}

// Get loads one record, preferring the short-lived status cache.
func (s *IzinService) Get(ctx context.Context, id string) (*models.Izin, error) {
	if s.cache != nil {
		var cached models.Izin
		if err := s.cache.Get(ctx, cacheKey(id), &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache lookup failed", zap.String("izin_id", id), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	izin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "izin tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gagal memuat izin")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(id), izin, s.cacheTTL); err != nil {
			s.logger.Warn("cache write failed", zap.String("izin_id", id), zap.Error(err))
		}
	}
	return izin, nil
}

// ListByNIS returns a submitter's records, newest first, optionally filtered
// by lifecycle status.
func (s *IzinService) ListByNIS(ctx context.Context, nis, status string) ([]models.Izin, error) {
	nis = strings.TrimSpace(nis)
	if nis == "" {
		return nil, requiredError("nis")
	}
	if !allDigits(nis) {
		return nil, validationError("NIS harus berupa angka.")
	}
	filter := models.IzinStatus(strings.TrimSpace(status))
	if filter != "" && !filter.Valid() {
		return nil, validationError("Status filter tidak valid.")
	}
	list, err := s.repo.ListByNIS(ctx, nis, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gagal memuat daftar izin")
	}
	return list, nil
}

// Verify transitions a pending record to approved or rejected and invalidates
// its cache entry. Already-verified records are never overwritten.
func (s *IzinService) Verify(ctx context.Context, id string, req dto.VerifyIzinRequest) (*models.Izin, error) {
	status := models.IzinStatus(strings.TrimSpace(req.Status))
	if status != models.IzinStatusApproved && status != models.IzinStatusRejected {
		return nil, validationError("Status verifikasi harus approved atau rejected.")
	}
	verifiedBy := strings.TrimSpace(req.VerifiedBy)
	if verifiedBy == "" {
		return nil, validationError("Nama verifikator harus diisi.")
	}

	izin, err := s.repo.UpdateStatus(ctx, id, status, verifiedBy, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the record does not exist or it already left pending.
			existing, findErr := s.repo.FindByID(ctx, id)
			if findErr == nil && existing.Status != models.IzinStatusPending {
				return nil, appErrors.Clone(appErrors.ErrConflict, "izin sudah diverifikasi")
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "izin tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gagal memperbarui status izin")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("izin_id", id), zap.Error(err))
		}
	}

	s.logger.Info("izin verified",
		zap.String("izin_id", izin.ID),
		zap.String("status", string(izin.Status)),
		zap.String("verified_by", verifiedBy))
	return izin, nil
}
