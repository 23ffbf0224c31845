package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kirillkom/court-docket/internal/config"
	"github.com/kirillkom/court-docket/internal/core/ports"
	"github.com/kirillkom/court-docket/internal/observability/metrics"
)

const serviceName = "api"

// Services are the inbound ports served over HTTP. Subscriber may be nil when
// live updates are disabled.
type Services struct {
	Uploads    ports.UploadService
	Processor  ports.SpreadsheetProcessor
	Importer   ports.CaseImporter
	Staged     ports.StagedReader
	Cases      ports.CaseReader
	Display    ports.DisplayService
	Subscriber ports.DisplaySubscriber
}

type pipelineObserver interface {
	ObserveRun(stage string, duration time.Duration, success bool)
	AddRows(stage, outcome string, n int)
}

type noopObserver struct{}

func (noopObserver) ObserveRun(string, time.Duration, bool) {}
func (noopObserver) AddRows(string, string, int)            {}

type Router struct {
	cfg      config.Config
	services Services
	metrics  *metrics.HTTPServerMetrics
	observer pipelineObserver
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{
		cfg:      cfg,
		services: services,
		observer: noopObserver{},
	}
}

// WithMetrics enables request metrics, pipeline metrics and the /metrics endpoint.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	if m != nil {
		rt.observer = m
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	mux.Route("/v1", func(r chi.Router) {
		r.Route("/board", func(r chi.Router) {
			if len(rt.cfg.CORSAllowedOrigins) > 0 {
				r.Use(boardCORS(rt.cfg.CORSAllowedOrigins))
			}
			r.Get("/{courtID}", rt.getBoard)
			r.Get("/{courtID}/stream", rt.streamBoard)
		})

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return bearerAuthMiddleware(next, rt.cfg.APIKey)
			})
			r.Use(actorMiddleware)

			r.Post("/uploads", rt.uploadSpreadsheet)
			r.Get("/uploads", rt.listUploads)
			r.Post("/uploads/process", rt.processUpload)
			r.Post("/spreadsheets/process", rt.processSpreadsheet)
			r.Get("/staged/{filename}", rt.getStaged)
			r.Post("/imports", rt.importCases)
			r.Get("/cases", rt.listCases)

			r.Get("/display", rt.listDisplay)
			r.Put("/display/order", rt.reorderDisplay)
			r.Put("/display/sequence", rt.reorderDisplaySequence)
			r.Get("/display/settings", rt.getDisplaySettings)
			r.Put("/display/settings", rt.updateDisplaySettings)
			r.Post("/display/{caseID}", rt.addToDisplay)
			r.Delete("/display/{caseID}", rt.removeFromDisplay)
		})
	})

	var handler http.Handler = mux
	if openAPIRouter, err := loadOpenAPIRouter(); err != nil {
		slog.Error("openapi_validation_disabled", "error", err)
	} else {
		handler = openAPIValidationMiddleware(openAPIRouter, handler)
	}
	wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, wait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return recoveryMiddleware(handler)
}

// boardCORS lets display screens served from other origins read the public board.
func boardCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Cache-Control", "Last-Event-ID"},
		MaxAge:         300,
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
