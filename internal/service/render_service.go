package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/izin-pramuka-api/internal/dto"
	"github.com/noah-isme/izin-pramuka-api/internal/letter"
	"github.com/noah-isme/izin-pramuka-api/internal/models"
	appErrors "github.com/noah-isme/izin-pramuka-api/pkg/errors"
)

// RenderService owns letter preview sessions, resolves them against stored
// records and gates PDF export on approval. Resolution is best-effort: a
// preview always renders, even when the backing record cannot be found or the
// store is unreachable; only export requires a resolved, approved record.
// pdfEncoder turns a rendered page into a single-page PDF document.
type pdfEncoder interface {
	Encode(img *image.RGBA) ([]byte, error)
}

type RenderService struct {
	sessions   *letter.SessionManager
	compositor *letter.Compositor
	pdf        pdfEncoder
	repo       izinRepository
	cache      statusCache
	metrics    *MetricsService
	logger     *zap.Logger
	statusTTL  time.Duration
}

// NewRenderService constructs the render service.
func NewRenderService(sessions *letter.SessionManager, compositor *letter.Compositor, pdf pdfEncoder, repo izinRepository, cache statusCache, metrics *MetricsService, logger *zap.Logger, statusTTL time.Duration) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = letter.NewPDFEncoder()
	}
	if statusTTL <= 0 {
		statusTTL = time.Minute
	}
	return &RenderService{
		sessions:   sessions,
		compositor: compositor,
		pdf:        pdf,
		repo:       repo,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		statusTTL:  statusTTL,
	}
}

// Preview opens a session for the submitted fields, attempts to resolve it
// against a stored record and returns the rendered letter as base64 JPEG.
func (s *RenderService) Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error) {
	fields := letter.Fields{
		Nama:    strings.TrimSpace(req.Nama),
		Absen:   strings.TrimSpace(req.Absen),
		Kelas:   strings.TrimSpace(req.Kelas),
		Sangga:  strings.TrimSpace(req.Sangga),
		PKKelas: strings.TrimSpace(req.PKKelas),
		Alasan:  strings.TrimSpace(req.Alasan),
	}
	if kelas, ok := NormalizeKelas(fields.Kelas); ok {
		fields.Kelas = kelas
	}

	sess := s.sessions.Create(fields, strings.TrimSpace(req.NIS), strings.TrimSpace(req.IzinID))

	if err := s.resolve(ctx, sess); err != nil {
		s.sessions.Drop(sess.ID)
		return nil, err
	}

	preview, err := s.render(sess)
	if err != nil {
		s.sessions.Drop(sess.ID)
		return nil, err
	}

	snap := sess.Snapshot()
	return &dto.PreviewResponse{
		SessionID:     snap.ID,
		State:         string(snap.State),
		IzinID:        snap.IzinID,
		Status:        string(snap.Status),
		VerifiedBy:    snap.VerifiedBy,
		CanExport:     sess.CanExport(),
		PreviewBase64: base64.StdEncoding.EncodeToString(preview),
	}, nil
}

// Refresh re-runs resolution for an existing session without re-rendering.
func (s *RenderService) Refresh(ctx context.Context, sessionID string) (*dto.RefreshResponse, error) {
	sess := s.sessions.Get(sessionID)
	if sess == nil {
		return nil, appErrors.ErrSessionNotFound
	}
	if err := s.resolve(ctx, sess); err != nil {
		return nil, err
	}

	snap := sess.Snapshot()
	return &dto.RefreshResponse{
		SessionID:  snap.ID,
		State:      string(snap.State),
		IzinID:     snap.IzinID,
		Status:     string(snap.Status),
		VerifiedBy: snap.VerifiedBy,
		CanExport:  sess.CanExport(),
	}, nil
}

// Export re-resolves the session, enforces the approval gate and returns a
// freshly rendered single-page PDF. The gate fails safe: anything short of a
// resolved, approved record refuses the export.
func (s *RenderService) Export(ctx context.Context, sessionID string) (string, []byte, error) {
	sess := s.sessions.Get(sessionID)
	if sess == nil {
		return "", nil, appErrors.ErrSessionNotFound
	}

	if err := s.resolve(ctx, sess); err != nil {
		return "", nil, err
	}
	if !sess.CanExport() {
		s.metrics.IncExportBlocked()
		return "", nil, appErrors.ErrNotApproved
	}

	fields := sess.Fields()
	img, err := s.compositor.Render(fields, sess.IzinID())
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, appErrors.ErrRenderFailed.Message)
	}
	payload, err := s.pdf.Encode(img)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, appErrors.ErrRenderFailed.Message)
	}

	s.metrics.IncExport()
	return letter.ExportFilename(fields.Nama, fields.Kelas), payload, nil
}

// Sessions exposes the session manager for lifecycle wiring.
func (s *RenderService) Sessions() *letter.SessionManager {
	return s.sessions
}

func (s *RenderService) render(sess *letter.Session) ([]byte, error) {
	start := time.Now()
	img, err := s.compositor.Render(sess.Fields(), sess.IzinID())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, appErrors.ErrRenderFailed.Message)
	}
	preview, err := letter.EncodeJPEG(img)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, appErrors.ErrRenderFailed.Message)
	}
	sess.SetPreview(preview)
	s.metrics.ObserveRender(time.Since(start))
	return preview, nil
}

// resolve runs one sequence-numbered resolution attempt. A store failure marks
// the session ResolutionFailed and returns nil so previews keep working; only
// caller mistakes (unknown izin ID, ambiguous match) surface as errors.
func (s *RenderService) resolve(ctx context.Context, sess *letter.Session) error {
	seq := sess.BeginResolve()

	if id := sess.IzinID(); id != "" {
		return s.resolveByID(ctx, sess, seq, id)
	}
	return s.resolveByMatch(ctx, sess, seq)
}

func (s *RenderService) resolveByID(ctx context.Context, sess *letter.Session, seq uint64, id string) error {
	izin, err := s.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sess.AbandonResolve(seq)
			return appErrors.Clone(appErrors.ErrNotFound, "izin tidak ditemukan")
		}
		sess.FailResolution(seq)
		s.logger.Warn("status lookup failed", zap.String("izin_id", id), zap.Error(err))
		return nil
	}
	sess.ApplyResolution(seq, izin.ID, izin.Status, izin.VerifiedBy)
	return nil
}

// resolveByMatch attempts a best-effort match by NIS plus exact nama and
// kelas. Zero candidates leaves the session unresolved; more than one refuses
// to guess.
func (s *RenderService) resolveByMatch(ctx context.Context, sess *letter.Session, seq uint64) error {
	nis := sess.NIS()
	if nis == "" {
		sess.AbandonResolve(seq)
		return nil
	}

	list, err := s.repo.ListByNIS(ctx, nis, "")
	if err != nil {
		sess.FailResolution(seq)
		s.logger.Warn("best-effort match failed", zap.String("nis", nis), zap.Error(err))
		return nil
	}

	fields := sess.Fields()
	var matches []models.Izin
	for _, izin := range list {
		if izin.Nama == fields.Nama && izin.Kelas == fields.Kelas {
			matches = append(matches, izin)
		}
	}

	switch len(matches) {
	case 0:
		sess.AbandonResolve(seq)
		return nil
	case 1:
		match := matches[0]
		sess.ApplyResolution(seq, match.ID, match.Status, match.VerifiedBy)
		s.cacheStatus(ctx, &match)
		return nil
	default:
		sess.AbandonResolve(seq)
		return appErrors.ErrAmbiguousMatch
	}
}

func (s *RenderService) lookup(ctx context.Context, id string) (*models.Izin, error) {
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
		return nil, err
	}
	s.cacheStatus(ctx, izin)
	return izin, nil
}

func (s *RenderService) cacheStatus(ctx context.Context, izin *models.Izin) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(izin.ID), izin, s.statusTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("izin_id", izin.ID), zap.Error(err))
	}
}
