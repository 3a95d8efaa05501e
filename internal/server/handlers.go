package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lawguy81/cnslr-legal-platform/internal/gateway"
	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON object from r. It writes the 400 itself and
// reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid JSON", "Request body must be valid JSON")
		return false
	}
	return true
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*gateway.Confirmation
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Submissions == nil {
		s.internalError(w, r, errors.New("submission gateway not configured"))
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	conf, err := s.deps.Submissions.SubmitJSON(r.Context(), body, clientAddr(r))
	if err != nil {
		s.writeError(w, r, err, "Submission failed")
		return
	}

	h := w.Header()
	h.Set("X-RateLimit-Remaining", strconv.Itoa(conf.Remaining))
	h.Set("X-Confirmation-Number", conf.ConfirmationNumber)
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	writeJSON(w, http.StatusOK, submitResponse{
		Success:      true,
		Message:      "Your parking ticket appeal has been submitted successfully",
		Confirmation: conf,
	})
}

type statusResponse struct {
	Success bool `json:"success"`
	*gateway.StatusView
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Statuses == nil {
		s.internalError(w, r, errors.New("status gateway not configured"))
		return
	}

	q := gateway.Query{
		ConfirmationNumber: r.URL.Query().Get("confirmationNumber"),
		TicketNumber:       r.URL.Query().Get("ticketNumber"),
	}
	view, err := s.deps.Statuses.Lookup(r.Context(), q, clientAddr(r))
	if err != nil {
		s.writeError(w, r, err, "Status lookup failed")
		return
	}

	h := w.Header()
	h.Set("X-RateLimit-Remaining", strconv.Itoa(view.Remaining))
	if view.FromCache {
		h.Set("X-Cache", "HIT")
		h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.deps.StatusTTL.Seconds())))
	} else {
		h.Set("X-Cache", "MISS")
		h.Set("Cache-Control", "no-cache")
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, StatusView: view})
}

type documentRequest struct {
	TaskID  string         `json:"taskId"`
	Answers models.Answers `json:"answers"`
	Format  string         `json:"format"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TaskID == "" {
		badRequest(w, "Validation failed", "taskId is required")
		return
	}
	if req.Format == "" {
		req.Format = string(render.FormatPDF)
	}

	format, err := render.ParseFormat(req.Format)
	if err != nil {
		badRequest(w, "Invalid format", "format must be one of html, pdf, docx")
		return
	}

	out, err := s.renderer.Render(req.TaskID, req.Answers, format)
	if err != nil {
		var te *render.TemplateError
		switch {
		case errors.Is(err, render.ErrUnknownTask):
			badRequest(w, "Unknown task", "No document template for task "+strconv.Quote(req.TaskID))
		case errors.As(err, &te):
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error:  "Document generation failed",
				Errors: []string{te.Error()},
			})
		default:
			s.internalError(w, r, err)
		}
		return
	}

	h := w.Header()
	h.Set("Content-Type", out.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	h.Set("Content-Length", strconv.Itoa(len(out.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Body)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	tasks := s.deps.Catalog.List()
	if tasks == nil {
		tasks = []models.TaskDefinition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleCatalogTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskId")
	task, ok := s.deps.Catalog.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Task not found", Message: "No task with id " + strconv.Quote(id)})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleFiling(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Filing)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Filing.Eligibility)
}

func (s *Server) handleFilingTask(w http.ResponseWriter, r *http.Request) {
	info, _ := s.deps.Filing.ForTask(chi.URLParam(r, "taskId"))
	writeJSON(w, http.StatusOK, info)
}
