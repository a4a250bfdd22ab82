package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/notify"
)

type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateActive    SessionState = "active"
	StateWarning   SessionState = "warning"
	StateExpired   SessionState = "expired"
	StateSubmitted SessionState = "submitted"
	StateCancelled SessionState = "cancelled"
)

const (
	WrapUpSeconds      = 180
	NotesCap           = 180
	warningAtRemaining = 31
	autosaveEveryTicks = 5
)

var (
	ErrSessionActive = errors.New("a wrap-up session is already active for this lead")
	ErrSessionClosed = errors.New("wrap-up session is no longer active")
	ErrNotesTooLong  = errors.New("notes exceed the 180 character cap")
)

// LockoutError carries the reason a submit was refused.
type LockoutError struct {
	Reason string
}

func (e *LockoutError) Error() string {
	return "submission locked: " + e.Reason
}

// DraftSaver receives best-effort autosaves of an in-flight session buffer.
type DraftSaver interface {
	SaveWrapUpDraft(ctx context.Context, d models.WrapUpDraft) error
}

// InterventionSink persists a finished intervention record.
type InterventionSink interface {
	RecordIntervention(ctx context.Context, iv models.Intervention) error
}

// JobContext is everything the wrap-up needs about the intervention being
// documented. Takeover and duration are fixed at check-in time; only the
// documentation buffer mutates during the session.
type JobContext struct {
	LeadID                string
	WorkerID              string
	JobID                 string
	Type                  models.InterventionType
	Takeover              models.TakeoverLevel
	DurationMin           int
	LaborPercent          int
	Category              models.ServiceCategory
	OriginalWorkerStarted bool
	Checklist             []ChecklistItem
}

// PhotoPrompt is a contextual photo requirement shown during wrap-up.
// Required prompts gate submission.
type PhotoPrompt struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Met      bool   `json:"met"`
}

// Session is the time-boxed documentation workflow following a check-in.
// One tick source per session; all mutation goes through the mutex. The
// session never does blocking I/O under the lock: autosaves and alerts run
// on their own goroutines.
type Session struct {
	ID  string
	ctx JobContext

	mu         sync.Mutex
	state      SessionState
	submitting bool
	total      int
	remaining  int
	ticks      int
	warned     bool
	notes      string
	tags       []string
	photos     []string
	prompts    []PhotoPrompt
	checklist  []ChecklistItem
	locked     bool
	lockedWhy  string
	comp       CompensationResult
	result     *models.Intervention
	lastSave   time.Time

	done     chan struct{}
	doneOnce sync.Once

	saver    DraftSaver
	sink     InterventionSink
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewSession starts a wrap-up for an intervention. The compensation preview
// runs up front so invalid inputs (partial takeover under 30 minutes) are
// rejected before any countdown begins.
func NewSession(jc JobContext, seconds int, saver DraftSaver, sink InterventionSink, notifier notify.Notifier, logger zerolog.Logger) (*Session, error) {
	comp, err := ComputeCompensation(CompensationInput{
		Takeover:              jc.Takeover,
		DurationMin:           jc.DurationMin,
		LaborPercent:          jc.LaborPercent,
		Category:              jc.Category,
		OriginalWorkerStarted: jc.OriginalWorkerStarted,
	})
	if err != nil {
		return nil, err
	}
	if seconds <= 0 {
		seconds = WrapUpSeconds
	}

	s := &Session{
		ID:        uuid.NewString(),
		ctx:       jc,
		state:     StateActive,
		total:     seconds,
		remaining: seconds,
		prompts:   photoPrompts(jc.Type, jc.Category, jc.Takeover),
		checklist: append([]ChecklistItem(nil), jc.Checklist...),
		comp:      comp,
		done:      make(chan struct{}),
		saver:     saver,
		sink:      sink,
		notifier:  notifier,
		logger:    logger,
	}
	s.revalidate()
	return s, nil
}

// Tick advances the countdown by one second. Driven by the session manager's
// ticker; tests call it directly.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting || (s.state != StateActive && s.state != StateWarning) {
		return
	}

	s.remaining--
	s.ticks++

	if s.remaining == warningAtRemaining && !s.warned {
		s.warned = true
		s.state = StateWarning
		s.alert(notify.KindWrapUpWarning, "30 seconds left to finish wrap-up")
	}

	if s.remaining <= 0 {
		s.expireLocked()
		return
	}

	if s.ticks%autosaveEveryTicks == 0 && s.notes != "" {
		s.autosaveLocked()
	}
}

// UpdateNotes replaces the notes buffer. An update that would exceed the cap
// is rejected whole, never truncated.
func (s *Session) UpdateNotes(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return ErrSessionClosed
	}
	if len([]rune(text)) > NotesCap {
		return ErrNotesTooLong
	}
	s.notes = text
	s.revalidate()
	return nil
}

// SelectTag appends a quick-select tag to the notes, subject to the same cap.
func (s *Session) SelectTag(tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return ErrSessionClosed
	}
	candidate := tag
	if s.notes != "" {
		candidate = s.notes + "; " + tag
	}
	if len([]rune(candidate)) > NotesCap {
		return ErrNotesTooLong
	}
	s.notes = candidate
	s.tags = append(s.tags, tag)
	s.revalidate()
	return nil
}

// AddPhoto buffers a photo reference. When prompt names an unmet prompt it is
// satisfied; an empty prompt satisfies the first unmet one.
func (s *Session) AddPhoto(ref string, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return ErrSessionClosed
	}
	s.photos = append(s.photos, ref)
	for i := range s.prompts {
		if s.prompts[i].Met {
			continue
		}
		if prompt == "" || s.prompts[i].Name == prompt {
			s.prompts[i].Met = true
			break
		}
	}
	s.revalidate()
	return nil
}

// SetChecklistItem marks an oversight checklist item done or not done.
func (s *Session) SetChecklistItem(name string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return ErrSessionClosed
	}
	for i := range s.checklist {
		if s.checklist[i].Name == name {
			s.checklist[i].Done = done
			s.revalidate()
			return nil
		}
	}
	return fmt.Errorf("unknown checklist item %q", name)
}

// Submit finalizes the session. Refused while locked; on success the
// intervention is persisted synchronously and the session closes.
func (s *Session) Submit(ctx context.Context) (models.Intervention, error) {
	s.mu.Lock()
	if !s.open() {
		s.mu.Unlock()
		return models.Intervention{}, ErrSessionClosed
	}
	s.revalidate()
	if s.locked {
		why := s.lockedWhy
		s.mu.Unlock()
		return models.Intervention{}, &LockoutError{Reason: why}
	}
	rec := s.buildRecordLocked(false)
	// Freeze the countdown while the write is in flight so an expiry tick
	// cannot race the submit into a double record.
	s.submitting = true
	s.mu.Unlock()

	if err := s.sink.RecordIntervention(ctx, rec); err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		return models.Intervention{}, err
	}

	s.mu.Lock()
	s.state = StateSubmitted
	s.result = &rec
	s.mu.Unlock()
	s.close()
	return rec, nil
}

// Cancel abandons the session without writing an intervention. The last
// autosaved draft stays behind for later review.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if !s.open() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateCancelled
	s.mu.Unlock()
	s.close()
	return nil
}

// expireLocked forces a submit with whatever is buffered, bypassing lockout.
// Capturing a partial record at the deadline beats losing it to validation.
func (s *Session) expireLocked() {
	s.state = StateExpired
	rec := s.buildRecordLocked(true)
	s.result = &rec
	s.alert(notify.KindAutoSubmit, "wrap-up expired, record auto-submitted")
	s.close()
}

func (s *Session) buildRecordLocked(auto bool) models.Intervention {
	return models.Intervention{
		ID:             uuid.NewString(),
		LeadID:         s.ctx.LeadID,
		WorkerID:       s.ctx.WorkerID,
		JobID:          s.ctx.JobID,
		Type:           s.ctx.Type,
		Takeover:       s.ctx.Takeover,
		DurationMin:    s.ctx.DurationMin,
		LaborPercent:   s.ctx.LaborPercent,
		Notes:          s.notes,
		PhotoRefs:      append([]string(nil), s.photos...),
		Tier:           s.comp.Tier,
		WrapUpDuration: s.total - s.remaining,
		AutoSubmitted:  auto,
		CreatedAt:      time.Now().UTC(),
	}
}

// revalidate recomputes the lockout flag. Called under the lock.
func (s *Session) revalidate() {
	for _, p := range s.prompts {
		if p.Required && !p.Met {
			s.locked = true
			s.lockedWhy = "missing required photo: " + p.Name
			return
		}
	}
	if strings.TrimSpace(s.notes) == "" {
		s.locked = true
		s.lockedWhy = "notes are required"
		return
	}
	for _, item := range s.checklist {
		if item.Mandatory && !item.Done {
			s.locked = true
			s.lockedWhy = "checklist item incomplete: " + item.Name
			return
		}
	}
	s.locked = false
	s.lockedWhy = ""
}

func (s *Session) autosaveLocked() {
	draft := models.WrapUpDraft{
		SessionID: s.ID,
		LeadID:    s.ctx.LeadID,
		JobID:     s.ctx.JobID,
		Notes:     s.notes,
		Tags:      append([]string(nil), s.tags...),
		PhotoRefs: append([]string(nil), s.photos...),
		Remaining: s.remaining,
		SavedAt:   time.Now().UTC(),
	}
	s.lastSave = draft.SavedAt
	if s.saver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.saver.SaveWrapUpDraft(ctx, draft); err != nil {
			s.logger.Warn().Err(err).Str("session_id", draft.SessionID).Msg("autosave failed")
		}
	}()
}

func (s *Session) alert(kind, message string) {
	if s.notifier == nil {
		return
	}
	ev := notify.Event{
		Kind:      kind,
		LeadID:    s.ctx.LeadID,
		SessionID: s.ID,
		Message:   message,
		At:        time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.logger.Warn().Err(err).Str("kind", kind).Msg("alert delivery failed")
		}
	}()
}

func (s *Session) open() bool {
	return s.state == StateActive || s.state == StateWarning
}

func (s *Session) close() { s.doneOnce.Do(func() { close(s.done) }) }

// Done is closed on every terminal transition; the manager uses it to stop
// the tick source deterministically.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) Locked() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked, s.lockedWhy
}

// Result returns the intervention produced by submit or expiry, nil otherwise.
func (s *Session) Result() *models.Intervention {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Preview returns the compensation preview computed at start.
func (s *Session) Preview() CompensationResult {
	return s.comp
}

// View is the session state exposed to the dashboard.
type SessionView struct {
	ID            string             `json:"id"`
	LeadID        string             `json:"lead_id"`
	JobID         string             `json:"job_id"`
	State         SessionState       `json:"state"`
	Remaining     int                `json:"remaining"`
	Notes         string             `json:"notes"`
	Tags          []string           `json:"tags"`
	PhotoRefs     []string           `json:"photo_refs"`
	Prompts       []PhotoPrompt      `json:"prompts"`
	Checklist     []ChecklistItem    `json:"checklist"`
	QuickTags     []string           `json:"quick_tags"`
	Locked        bool               `json:"locked"`
	LockoutReason string             `json:"lockout_reason,omitempty"`
	Compensation  CompensationResult `json:"compensation"`
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		ID:            s.ID,
		LeadID:        s.ctx.LeadID,
		JobID:         s.ctx.JobID,
		State:         s.state,
		Remaining:     s.remaining,
		Notes:         s.notes,
		Tags:          append([]string(nil), s.tags...),
		PhotoRefs:     append([]string(nil), s.photos...),
		Prompts:       append([]PhotoPrompt(nil), s.prompts...),
		Checklist:     append([]ChecklistItem(nil), s.checklist...),
		QuickTags:     QuickTags(s.ctx.Type, s.ctx.Category),
		Locked:        s.locked,
		LockoutReason: s.lockedWhy,
		Compensation:  s.comp,
	}
}

// photoPrompts derives the required-photo prompts from the check-in type and
// service category. Perk deliveries always need photographic proof.
func photoPrompts(t models.InterventionType, cat models.ServiceCategory, takeover models.TakeoverLevel) []PhotoPrompt {
	var prompts []PhotoPrompt
	if t == models.InterventionPerkDelivery {
		prompts = append(prompts, PhotoPrompt{Name: "perk_handoff", Required: true})
	}
	if takeover != models.TakeoverNone {
		prompts = append(prompts, PhotoPrompt{Name: "completed_work", Required: true})
		if cat == models.ServiceCarWash {
			prompts = append(prompts, PhotoPrompt{Name: "vehicle_exterior", Required: true})
		}
	}
	if len(prompts) == 0 {
		prompts = append(prompts, PhotoPrompt{Name: "work_area", Required: false})
	}
	return prompts
}

// QuickTags returns the one-tap note snippets offered for a check-in.
func QuickTags(t models.InterventionType, cat models.ServiceCategory) []string {
	tags := []string{"Walked worker through checklist", "Resolved customer concern"}
	switch cat {
	case models.ServiceLaundry:
		tags = append(tags, "Re-sorted and re-bagged order", "Stain pre-treatment redone")
	case models.ServiceCarWash:
		tags = append(tags, "Interior re-vacuumed", "Exterior spot-finished")
	case models.ServiceCleaning:
		tags = append(tags, "Deep-cleaned missed area", "Restocked supplies on site")
	}
	if t == models.InterventionPerkDelivery {
		tags = append(tags, "Perk delivered to customer")
	}
	return tags
}
