package letter

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
)

// ResolutionState tracks how far a session has come in resolving its record's
// approval status.
type ResolutionState string

const (
	StateUnresolved       ResolutionState = "unresolved"
	StateResolving        ResolutionState = "resolving"
	StateResolved         ResolutionState = "resolved"
	StateResolutionFailed ResolutionState = "resolution_failed"
)

// Session is the per-preview render state. It is owned by exactly one caller
// and never persisted; durable state lives in the record store. Resolution
// attempts carry sequence numbers so that a stale result arriving after a
// newer refresh is discarded instead of racing last-write-wins.
type Session struct {
	ID string

	mu         sync.Mutex
	fields     Fields
	nis        string
	izinID     string
	state      ResolutionState
	status     models.IzinStatus
	verifiedBy *string
	seq        uint64
	preview    []byte
	expiresAt  time.Time
}

// Snapshot is an immutable view of session state for response building.
type Snapshot struct {
	ID         string
	Fields     Fields
	IzinID     string
	State      ResolutionState
	Status     models.IzinStatus
	VerifiedBy *string
	Preview    []byte
}

// NewSession creates a session for the given field record. nis is the stable
// submitter key used for best-effort matching; a known record identifier may
// be supplied up front and is confirmed during resolution.
func NewSession(fields Fields, nis, izinID string, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		fields:    fields,
		nis:       nis,
		izinID:    izinID,
		state:     StateUnresolved,
		expiresAt: time.Now().Add(ttl),
	}
}

// Fields returns the current field record.
func (s *Session) Fields() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

// NIS returns the submitter key, empty when the caller never identified.
func (s *Session) NIS() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nis
}

// IzinID returns the resolved (or supplied) record identifier, empty when
// unknown.
func (s *Session) IzinID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.izinID
}

// SetPreview stores the last rendered preview for this session.
func (s *Session) SetPreview(preview []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = preview
}

// BeginResolve issues a new resolution attempt and moves the session to
// Resolving. The returned sequence number must be passed back with the
// attempt's outcome; only the latest issued number is accepted.
func (s *Session) BeginResolve() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = StateResolving
	return s.seq
}

// ApplyResolution records a successful lookup. Stale attempts return false
// and leave state untouched.
func (s *Session) ApplyResolution(seq uint64, izinID string, status models.IzinStatus, verifiedBy *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.izinID = izinID
	s.status = status
	s.verifiedBy = verifiedBy
	s.state = StateResolved
	return true
}

// AbandonResolve returns the session to Unresolved, used when best-effort
// matching finds no candidate record. Stale attempts return false.
func (s *Session) AbandonResolve(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.state = StateUnresolved
	return true
}

// FailResolution records a failed lookup. The export gate stays closed but
// the session remains usable for previews.
func (s *Session) FailResolution(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.state = StateResolutionFailed
	return true
}

// CanExport reports whether PDF export is permitted: only a resolved,
// approved record opens the gate. Resolving, unresolved and failed states all
// fail safe.
func (s *Session) CanExport() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateResolved && s.status == models.IzinStatusApproved
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.ID,
		Fields:     s.fields,
		IzinID:     s.izinID,
		State:      s.state,
		Status:     s.status,
		VerifiedBy: s.verifiedBy,
		Preview:    s.preview,
	}
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

// Touch extends the session lifetime after activity.
func (s *Session) Touch(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(ttl)
}

// SessionManager owns all live render sessions and sweeps expired ones in the
// background.
type SessionManager struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	done    chan struct{}
	started bool
	wg      sync.WaitGroup
}

// NewSessionManager constructs a manager with the given session TTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionManager{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
}

// Create registers a new session for the field record.
func (m *SessionManager) Create(fields Fields, nis, izinID string) *Session {
	session := NewSession(fields, nis, izinID, m.ttl)
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get returns the session or nil when unknown/expired.
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if session.expired(time.Now()) {
		delete(m.sessions, id)
		return nil
	}
	session.Touch(m.ttl)
	return session
}

// Drop removes a session explicitly (caller navigated away).
func (m *SessionManager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Start launches the background sweep. Safe to call once.
func (m *SessionManager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case now := <-ticker.C:
				m.sweep(now)
			}
		}
	}()
}

// Stop terminates the sweep goroutine.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.mu.Unlock()
	close(m.done)
	m.wg.Wait()
}

func (m *SessionManager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.expired(now) {
			delete(m.sessions, id)
		}
	}
}
