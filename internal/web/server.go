// Package web serves the wizard, the report pages and the JSON API.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joelkehle/patentmate/internal/aggregate"
	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/render"
	"github.com/joelkehle/patentmate/internal/report"
	"github.com/joelkehle/patentmate/internal/telemetry"
	"github.com/joelkehle/patentmate/internal/wizard"
)

// Reports is the report service as seen by the handlers.
type Reports interface {
	aggregate.Reporter
	SubmitPatentApplication(ctx context.Context, kv clientstore.KV, answers wizard.FormAnswers) report.SubmitResult
	AnalyzeDisclosure(ctx context.Context, kv clientstore.KV, description string) report.AnalysisResult
}

// Deps are the collaborators a Server needs. PDF and Metrics may be nil.
type Deps struct {
	Store   clientstore.Store
	Reports Reports
	PDF     render.PDFRenderer
	Metrics *telemetry.Metrics
	Steps   []wizard.Step
}

type Options struct {
	CookieSecure   bool
	AllowedOrigins []string
}

type Server struct {
	store      clientstore.Store
	reports    Reports
	aggregator *aggregate.Aggregator
	pdf        render.PDFRenderer
	metrics    *telemetry.Metrics
	steps      []wizard.Step
	pages      *pages
	opts       Options
}

func NewServer(deps Deps, opts Options) *Server {
	steps := deps.Steps
	if steps == nil {
		steps = wizard.DefaultSteps()
	}
	return &Server{
		store:      deps.Store,
		reports:    deps.Reports,
		aggregator: aggregate.New(deps.Reports),
		pdf:        deps.PDF,
		metrics:    deps.Metrics,
		steps:      steps,
		pages:      mustLoadPages(),
		opts:       opts,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Handle("/static/*", staticHandler())

	r.Group(func(pg chi.Router) {
		pg.Use(s.withSession)

		pg.Get("/", s.handleHome)
		pg.Get("/ability-search", s.handleWizard)
		pg.Post("/ability-search", s.handleWizardPost)
		pg.Post("/ability-search/upload", s.handleWizardUpload)

		pg.Get("/report", s.handleReport)
		pg.Get("/report/markdown", s.handleReportMarkdown)
		pg.Get("/report/pdf", s.handleReportPDF)

		pg.Get("/invention-disclosure", s.handleDisclosure)
		pg.Post("/invention-disclosure", s.handleDisclosurePost)

		pg.Get("/contributor-analysis", s.handleContributors)
		pg.Post("/contributor-analysis", s.handleContributorsPost)

		pg.Get("/final-report", s.handleFinalReport)
		pg.Get("/final-report/content", s.handleFinalReportContent)
		pg.Get("/final-report/pdf", s.handleFinalReportPDF)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins(),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		api.Use(s.withSession)

		api.Post("/patent-application", s.apiPatentApplication)
		api.Post("/invention-disclosure", s.apiInventionDisclosure)
		api.Post("/final-report", s.apiFinalReport)
		api.Post("/similar-patents", s.apiSimilarPatents)
		api.Post("/suggested-attorneys", s.apiSuggestedAttorneys)
		api.Post("/report-pdf", s.apiReportPDF)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.pages.render(w, r, http.StatusNotFound, "not_found.html", map[string]any{"Title": "Not found", "Active": ""})
	})
	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.opts.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.opts.AllowedOrigins
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
