package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/wizard"
)

// wizardView is the client's picture of one server-side session.
type wizardView struct {
	ID          string               `json:"id"`
	TaskID      string               `json:"taskId"`
	Step        models.Step          `json:"step"`
	StepIndex   int                  `json:"stepIndex"`
	StepCount   int                  `json:"stepCount"`
	Fields      []models.FieldSchema `json:"fields"`
	Answers     models.Answers       `json:"answers"`
	FieldErrors map[string]string    `json:"fieldErrors"`
	IsReview    bool                 `json:"isReview"`
	Submitted   bool                 `json:"submitted"`
	Progress    float64              `json:"progress"`
}

func newWizardView(m *wizard.Machine) wizardView {
	fields := m.Fields()
	if fields == nil {
		fields = []models.FieldSchema{}
	}
	return wizardView{
		ID:          m.Key(),
		TaskID:      m.Task().ID,
		Step:        m.Step(),
		StepIndex:   m.StepIndex(),
		StepCount:   len(m.Task().Steps),
		Fields:      fields,
		Answers:     m.Answers(),
		FieldErrors: m.FieldErrors(),
		IsReview:    m.IsReview(),
		Submitted:   m.Submitted(),
		Progress:    m.Progress(),
	}
}

func (s *Server) sessionsReady(w http.ResponseWriter) bool {
	if s.deps.Sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "Sessions unavailable",
			Message: "Server-side wizard sessions are not enabled",
		})
		return false
	}
	return true
}

func (s *Server) newMachine(task models.TaskDefinition, key string) *wizard.Machine {
	return wizard.New(task, s.deps.Sessions, wizard.LocalSubmitter{},
		wizard.WithKey(key),
		wizard.WithClock(s.now),
		wizard.WithLogger(s.logger),
	)
}

type createWizardRequest struct {
	TaskID string `json:"taskId"`
}

func (s *Server) handleWizardCreate(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsReady(w) {
		return
	}
	var req createWizardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	task, ok := s.deps.Catalog.Get(req.TaskID)
	if !ok {
		badRequest(w, "Unknown task", "No task with id "+req.TaskID)
		return
	}

	m := s.newMachine(task, uuid.NewString())
	if err := m.Save(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newWizardView(m))
}

// loadMachine restores the session at {id}. It writes the error response
// and returns nil when the session cannot be used.
func (s *Server) loadMachine(w http.ResponseWriter, r *http.Request) *wizard.Machine {
	if !s.sessionsReady(w) {
		return nil
	}
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	sess, err := s.deps.Sessions.LoadSession(ctx, id)
	if errors.Is(err, wizard.ErrNotFound) {
		status, body := http.StatusNotFound, errorBody{Error: "Session not found", Message: "No wizard session " + id}
		if _, cerr := s.deps.Sessions.LoadCompleted(ctx, id); cerr == nil {
			status, body = http.StatusConflict, errorBody{Error: "Session submitted", Message: "This wizard has already been submitted"}
		}
		writeJSON(w, status, body)
		return nil
	}
	if err != nil {
		s.internalError(w, r, err)
		return nil
	}

	task, ok := s.deps.Catalog.Get(sess.TaskID)
	if !ok {
		s.internalError(w, r, errors.New("session references unknown task "+sess.TaskID))
		return nil
	}
	m := s.newMachine(task, id)
	if _, err := m.Restore(ctx); err != nil {
		s.internalError(w, r, err)
		return nil
	}
	return m
}

func (s *Server) handleWizardGet(w http.ResponseWriter, r *http.Request) {
	m := s.loadMachine(w, r)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, newWizardView(m))
}

func (s *Server) handleWizardAnswers(w http.ResponseWriter, r *http.Request) {
	m := s.loadMachine(w, r)
	if m == nil {
		return
	}
	var answers map[string]any
	if !decodeBody(w, r, &answers) {
		return
	}

	names := make([]string, 0, len(answers))
	for name := range answers {
		if _, ok := m.Task().Field(name); !ok {
			badRequest(w, "Unknown field", "Task "+m.Task().ID+" has no field "+name)
			return
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.SetAnswer(r.Context(), name, answers[name]); err != nil {
			s.internalError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newWizardView(m))
}

func (s *Server) handleWizardNext(w http.ResponseWriter, r *http.Request) {
	m := s.loadMachine(w, r)
	if m == nil {
		return
	}
	err := m.Next(r.Context())
	switch {
	case errors.Is(err, wizard.ErrStepInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, newWizardView(m))
	case err != nil:
		s.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, newWizardView(m))
	}
}

func (s *Server) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	m := s.loadMachine(w, r)
	if m == nil {
		return
	}
	if err := m.Back(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWizardView(m))
}

func (s *Server) handleWizardCompleted(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsReady(w) {
		return
	}
	c, err := s.deps.Sessions.LoadCompleted(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, wizard.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not submitted", Message: "This wizard has not been submitted"})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
