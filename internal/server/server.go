// Package server exposes the gateways, the renderer, and server-side wizard
// sessions over HTTP.
package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
	"github.com/Lawguy81/cnslr-legal-platform/internal/efiling"
	"github.com/Lawguy81/cnslr-legal-platform/internal/gateway"
	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
	"github.com/Lawguy81/cnslr-legal-platform/internal/wizard"
)

// Version is reported by /health.
var Version = "0.1.0"

// SessionStore is the wizard persistence the server needs. *store.Store
// satisfies it.
type SessionStore interface {
	wizard.SessionStore
	Ping(ctx context.Context) error
}

// Deps are the components the server routes to. Sessions may be nil, in
// which case the /wizard routes report 503.
type Deps struct {
	Submissions *gateway.Submissions
	Statuses    *gateway.Statuses
	Renderer    *render.Renderer
	Catalog     *catalog.Catalog
	Filing      *efiling.Guide
	Sessions    SessionStore

	// StatusTTL is advertised in Cache-Control on cached status hits.
	StatusTTL time.Duration
	// Mode is the upstream mode reported by /health.
	Mode           string
	AllowedOrigins string
	DevDiagnostics bool
	Logger         *log.Logger
	Now            func() time.Time
}

// Server is the cnslr HTTP API.
type Server struct {
	deps     Deps
	addr     string
	logger   *log.Logger
	now      func() time.Time
	renderer *render.Renderer
	handler  http.Handler
	server   *http.Server
}

// NewServer builds the router. The renderer is used in strict mode: unknown
// task ids are rejected rather than rendered generically.
func NewServer(deps Deps, addr string) *Server {
	s := &Server{deps: deps, addr: addr, logger: deps.Logger, now: deps.Now}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if deps.AllowedOrigins == "" {
		s.deps.AllowedOrigins = "*"
	}
	if deps.StatusTTL <= 0 {
		s.deps.StatusTTL = gateway.DefaultStatusTTL
	}
	if deps.Catalog == nil {
		s.deps.Catalog = catalog.Default()
	}
	if deps.Filing == nil {
		s.deps.Filing = efiling.Default()
	}

	r := render.New()
	if deps.Renderer != nil {
		cp := *deps.Renderer
		r = &cp
	}
	r.Strict = true
	s.renderer = r

	s.handler = s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID, withRecover(s.logger), withAccessLog(s.logger), withCORS(s.deps.AllowedOrigins))
	r.MethodNotAllowed(s.handleMethodNotAllowed)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found", Message: "No route for " + r.URL.Path})
	})

	r.Get("/health", s.handleHealth)

	r.Options("/submissions", preflight("POST, OPTIONS"))
	r.Post("/submissions", s.handleSubmit)

	r.Options("/status", preflight("GET, OPTIONS"))
	r.Get("/status", s.handleStatus)

	r.Options("/documents", preflight("POST, OPTIONS"))
	r.Post("/documents", s.handleDocument)

	r.Get("/catalog", s.handleCatalog)
	r.Get("/catalog/{taskId}", s.handleCatalogTask)

	r.Get("/efiling", s.handleFiling)
	r.Get("/efiling/eligibility", s.handleEligibility)
	r.Get("/efiling/{taskId}", s.handleFilingTask)

	r.Route("/wizard", func(r chi.Router) {
		r.Post("/", s.handleWizardCreate)
		r.Get("/{id}", s.handleWizardGet)
		r.Post("/{id}/answers", s.handleWizardAnswers)
		r.Post("/{id}/next", s.handleWizardNext)
		r.Post("/{id}/back", s.handleWizardBack)
		r.Get("/{id}/completed", s.handleWizardCompleted)
	})

	return r
}

// Handler returns the routed handler with middleware.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	s.logger.Printf(`{"level":"info","msg":"listening","addr":%q,"mode":%q}`, s.addr, s.deps.Mode)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{
		Error:   "Method not allowed",
		Message: "This endpoint does not accept " + r.Method + " requests",
	})
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	Time    string `json:"time"`
	Mode    string `json:"mode"`
	DB      string `json:"db"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:      true,
		Version: Version,
		Time:    s.now().UTC().Format(time.RFC3339),
		Mode:    s.deps.Mode,
		DB:      "disabled",
	}
	status := http.StatusOK

	if s.deps.Sessions != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Sessions.Ping(ctx); err != nil {
			resp.OK = false
			resp.DB = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.DB = "ok"
		}
	}

	writeJSON(w, status, resp)
}
