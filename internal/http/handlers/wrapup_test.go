package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/service"
)

type memorySink struct {
	mu   sync.Mutex
	recs []models.Intervention
}

func (s *memorySink) RecordIntervention(_ context.Context, iv models.Intervention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, iv)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

type memorySaver struct{}

func (memorySaver) SaveWrapUpDraft(context.Context, models.WrapUpDraft) error { return nil }

func newWrapUpTestServer(t *testing.T) (*gin.Engine, *service.SessionManager, *memorySink) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sink := &memorySink{}
	mgr := service.NewSessionManager(memorySaver{}, sink, nil, zerolog.Nop())
	mgr.TickInterval = time.Hour

	h := &Handler{
		Sessions:  mgr,
		Modes:     service.NewShiftModeController(),
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/api/wrapups/:id", h.WrapUpGet)
	r.POST("/api/wrapups/:id/notes", h.WrapUpNotes)
	r.POST("/api/wrapups/:id/tags", h.WrapUpTag)
	r.POST("/api/wrapups/:id/photos", h.WrapUpPhoto)
	r.POST("/api/wrapups/:id/checklist", h.WrapUpChecklist)
	r.POST("/api/wrapups/:id/submit", h.WrapUpSubmit)
	r.POST("/api/wrapups/:id/cancel", h.WrapUpCancel)
	r.GET("/api/debug/compensation", h.DebugCompensation)
	return r, mgr, sink
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, mgr *service.SessionManager) *service.Session {
	t.Helper()
	s, err := mgr.Start(service.JobContext{
		LeadID:   "lead-1",
		WorkerID: "w-1",
		JobID:    "j-1",
		Type:     models.InterventionAssist,
		Takeover: models.TakeoverNone,
		Category: models.ServiceCleaning,
		Checklist: []service.ChecklistItem{
			{Name: "zone_walkthrough", Mandatory: true},
		},
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return s
}

func TestWrapUpFlowOverHTTP(t *testing.T) {
	r, mgr, sink := newWrapUpTestServer(t)
	s := startSession(t, mgr)
	base := "/api/wrapups/" + s.ID

	// Locked submit first: nothing documented yet.
	w := doJSON(t, r, http.MethodPost, base+"/submit", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for locked submit, got %d: %s", w.Code, w.Body.String())
	}
	if sink.count() != 0 {
		t.Fatal("locked submit must not persist a record")
	}

	w = doJSON(t, r, http.MethodPost, base+"/notes", `{"text":"walked worker through re-clean"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("notes update failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, base+"/tags", `{"tag":"Resolved customer concern"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("tag failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, base+"/checklist", `{"name":"zone_walkthrough","done":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("checklist failed: %d %s", w.Code, w.Body.String())
	}

	var view service.SessionView
	w = doJSON(t, r, http.MethodGet, base, "")
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Locked {
		t.Fatalf("session should be unlocked, reason %q", view.LockoutReason)
	}
	if len(view.QuickTags) == 0 {
		t.Fatal("expected quick tags in view")
	}

	w = doJSON(t, r, http.MethodPost, base+"/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit failed: %d %s", w.Code, w.Body.String())
	}
	var rec models.Intervention
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.AutoSubmitted {
		t.Fatal("manual submit must not be marked auto")
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 persisted record, got %d", sink.count())
	}

	// The manager reaps the session; subsequent lookups 404.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if mgr.Get(s.ID) == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	w = doJSON(t, r, http.MethodGet, base, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after submit, got %d", w.Code)
	}
}

func TestWrapUpNotesTooLongOverHTTP(t *testing.T) {
	r, mgr, _ := newWrapUpTestServer(t)
	s := startSession(t, mgr)

	long := strings.Repeat("x", service.NotesCap+1)
	w := doJSON(t, r, http.MethodPost, "/api/wrapups/"+s.ID+"/notes", `{"text":"`+long+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized notes, got %d", w.Code)
	}
}

func TestWrapUpUnknownSession(t *testing.T) {
	r, _, _ := newWrapUpTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/api/wrapups/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestWrapUpCancelOverHTTP(t *testing.T) {
	r, mgr, sink := newWrapUpTestServer(t)
	s := startSession(t, mgr)

	w := doJSON(t, r, http.MethodPost, "/api/wrapups/"+s.ID+"/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel failed: %d %s", w.Code, w.Body.String())
	}
	if sink.count() != 0 {
		t.Fatal("cancel must not persist a record")
	}
}

func TestDebugCompensationEndpoint(t *testing.T) {
	r, _, _ := newWrapUpTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/debug/compensation?takeover=partial&duration=29&category=laundry", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 29-minute partial, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/debug/compensation?takeover=partial&duration=30&category=laundry", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res service.CompensationResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Tier != service.TierPartial || res.Bonus != 10 || !res.RequiresVerification {
		t.Fatalf("unexpected result: %+v", res)
	}

	w = doJSON(t, r, http.MethodGet, "/api/debug/compensation?takeover=full&worker_started=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	res = service.CompensationResult{}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.WorkerCredit != 10 {
		t.Fatalf("expected $10 worker credit, got %v", res.WorkerCredit)
	}
}
