package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/openwax/internal/config"
	"github.com/JakeFAU/openwax/internal/i18n"
	"github.com/JakeFAU/openwax/internal/logging"
	"github.com/JakeFAU/openwax/internal/metrics"
	"github.com/JakeFAU/openwax/internal/score"
	"github.com/JakeFAU/openwax/internal/web"
)

const (
	defaultRequestTimeout = 30 * time.Second
	readinessTimeout      = 2 * time.Second
)

// Pinger reports whether a dependency can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the score service and views.
type Server struct {
	router   chi.Router
	service  *score.Service
	health   Pinger
	renderer *web.Renderer
	locales  *i18n.Negotiator
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	service *score.Service,
	health Pinger,
	renderer *web.Renderer,
	locales *i18n.Negotiator,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		service:  service,
		health:   health,
		renderer: renderer,
		locales:  locales,
		logger:   logger,
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middlewareChain(logger, timeout)...)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.main)
	r.With(chimw.NoCache).Get("/log", s.logScore)
	r.Get("/search", s.search)

	s.router = r
	return s
}

// middlewareChain is outermost first. metrics sits outside recover so a
// recovered panic is counted as the 500 it produces.
func middlewareChain(logger *zap.Logger, timeout time.Duration) chi.Middlewares {
	return chi.Middlewares{
		otelhttp.NewMiddleware("openwax.http"),
		requestIDMiddleware(logger),
		loggingMiddleware,
		metrics.Middleware,
		recoverMiddleware,
		timeoutMiddleware(timeout),
	}
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := s.health.Ping(ctx); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// logScore handles GET /log?url=&score=&title=. Rejected submissions are not
// errors; the pixel is served either way and only a store failure yields 500.
func (s *Server) logScore(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), s.logger)
	sub := score.NewSubmission(r.FormValue("url"), r.FormValue("score"), r.FormValue("title"))

	verdict := score.Accept(sub)
	if !verdict.Accepted {
		logger.Debug("submission rejected",
			zap.String("url", sub.URL),
			zap.String("reason", string(verdict.Reason)),
		)
		metrics.ObserveSubmission(string(verdict.Reason))
		s.servePixel(w, logger)
		return
	}

	if _, err := s.service.Record(r.Context(), sub); err != nil {
		logger.Error("record submission failed", zap.String("url", sub.URL), zap.Error(err))
		metrics.ObserveStoreError("record")
		internalError(w)
		return
	}
	metrics.ObserveSubmission(metrics.OutcomeAccepted)
	s.servePixel(w, logger)
}

func (s *Server) servePixel(w http.ResponseWriter, logger *zap.Logger) {
	if err := writePixel(w); err != nil {
		logger.Debug("write pixel failed", zap.Error(err))
	}
}

func (s *Server) main(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), s.logger)
	list, err := s.service.Recent(r.Context())
	if err != nil {
		logger.Error("load recent scores failed", zap.Error(err))
		metrics.ObserveStoreError("recent")
		internalError(w)
		return
	}
	tr := s.locales.FromHeader(r.Header.Get("Accept-Language"))
	s.render(w, logger, web.PageMain, web.Page{
		Lang: tr.Lang(),
		T:    tr.T,
		List: list,
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), s.logger)
	res, err := s.service.Search(r.Context(), r.FormValue("q"))
	if err != nil {
		logger.Error("search scores failed", zap.Error(err))
		metrics.ObserveStoreError("search")
		internalError(w)
		return
	}
	metrics.ObserveSearch(searchOutcome(res))

	tr := s.locales.FromHeader(r.Header.Get("Accept-Language"))
	s.render(w, logger, web.PageSearch, web.Page{
		Title: tr.T("Search"),
		Lang:  tr.Lang(),
		T:     tr.T,
		Query: res.Query,
		Count: res.Count,
		Avg:   res.Avg,
		List:  res.List,
	})
}

func searchOutcome(res score.SearchResult) string {
	switch {
	case res.Query == "":
		return metrics.SearchEmpty
	case res.Count > 0:
		return metrics.SearchHit
	default:
		return metrics.SearchMiss
	}
}

func (s *Server) render(w http.ResponseWriter, logger *zap.Logger, page string, data web.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, page, data); err != nil {
		logger.Error("render page failed", zap.String("page", page), zap.Error(err))
		internalError(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func internalError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
