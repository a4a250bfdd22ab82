package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/notify"
)

// SessionManager owns the tick source for every live wrap-up session and
// enforces the one-active-session-per-lead rule. Sessions never start their
// own timers; the manager's per-session goroutine is the only tick driver
// and it stops the moment the session reaches a terminal state.
type SessionManager struct {
	Saver    DraftSaver
	Sink     InterventionSink
	Notifier notify.Notifier
	Logger   zerolog.Logger

	// WrapUpSeconds overrides the default countdown, mostly for tests.
	WrapUpSeconds int
	// TickInterval overrides the 1s tick, mostly for tests.
	TickInterval time.Duration

	mu     sync.Mutex
	byLead map[string]*Session
	byID   map[string]*Session
}

func NewSessionManager(saver DraftSaver, sink InterventionSink, notifier notify.Notifier, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		Saver:    saver,
		Sink:     sink,
		Notifier: notifier,
		Logger:   logger,
		byLead:   make(map[string]*Session),
		byID:     make(map[string]*Session),
	}
}

// Start begins a wrap-up session for a lead. A second start while one is
// active is rejected, not queued.
func (m *SessionManager) Start(jc JobContext) (*Session, error) {
	m.mu.Lock()
	if _, busy := m.byLead[jc.LeadID]; busy {
		m.mu.Unlock()
		return nil, ErrSessionActive
	}
	s, err := NewSession(jc, m.WrapUpSeconds, m.Saver, m.Sink, m.Notifier, m.Logger)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.byLead[jc.LeadID] = s
	m.byID[s.ID] = s
	m.mu.Unlock()

	go m.run(s)
	return s, nil
}

// Get returns a live session by id, or nil once it has been reaped.
func (m *SessionManager) Get(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[sessionID]
}

// ActiveForLead returns the lead's live session, if any.
func (m *SessionManager) ActiveForLead(leadID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byLead[leadID]
}

func (m *SessionManager) run(s *Session) {
	interval := m.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.Done():
			m.finish(s)
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// finish reaps a terminal session. Expired sessions carry a forced record
// that still needs persisting; submitted ones were written synchronously.
func (m *SessionManager) finish(s *Session) {
	m.mu.Lock()
	delete(m.byLead, s.ctx.LeadID)
	delete(m.byID, s.ID)
	m.mu.Unlock()

	if s.State() != StateExpired {
		return
	}
	rec := s.Result()
	if rec == nil || m.Sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Sink.RecordIntervention(ctx, *rec); err != nil {
		m.Logger.Error().Err(err).Str("session_id", s.ID).Msg("failed to persist auto-submitted intervention")
	}
}
