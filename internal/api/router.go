package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/soaringjerry/obe-survey/internal/middleware"
	"github.com/soaringjerry/obe-survey/internal/services"
	"github.com/soaringjerry/obe-survey/internal/utils"
)

// Config carries the dependencies of the HTTP layer. Only Store and Auth are
// required.
type Config struct {
	Store          Store
	Auth           *middleware.Authenticator
	Logger         *log.Logger
	Metrics        services.Metrics
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	ExportInterval time.Duration
	TokenTTL       time.Duration
	Commit         string
	BuildTime      string
	// Ping reports backend health for /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

type Router struct {
	logger         *log.Logger
	auth           *middleware.Authenticator
	httpMetrics    *middleware.HTTPMetrics
	metricsHandler http.Handler
	origins        []string
	exports        *tenantLimiter
	commit         string
	buildTime      string
	ping           func(ctx context.Context) error

	surveys   *services.SurveyService
	responses *services.ResponseService
	analytics *services.AnalyticsService
	exporter  *services.ExportService
	authSvc   *services.AuthService
}

func NewRouter(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[obe-survey] ", log.LstdFlags)
	}
	auth := cfg.Auth
	if auth == nil {
		auth = middleware.NewAuthenticator([]byte("obe-dev-secret"))
	}
	return &Router{
		logger:         logger,
		auth:           auth,
		httpMetrics:    cfg.HTTPMetrics,
		metricsHandler: cfg.MetricsHandler,
		origins:        cfg.AllowedOrigins,
		exports:        newTenantLimiter(cfg.ExportInterval),
		commit:         cfg.Commit,
		buildTime:      cfg.BuildTime,
		ping:           cfg.Ping,
		surveys:        services.NewSurveyService(cfg.Store),
		responses:      services.NewResponseService(cfg.Store),
		analytics:      services.NewAnalyticsService(cfg.Store, cfg.Metrics),
		exporter:       services.NewExportService(cfg.Store),
		authSvc:        services.NewAuthService(cfg.Store, auth.SignToken, cfg.TokenTTL),
	}
}

// Handler assembles the chi router with the middleware stack.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if rt.httpMetrics != nil {
		r.Use(rt.httpMetrics.Handler)
	}
	r.Use(middleware.CORS(rt.origins))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LocaleMiddleware)

	r.Get("/health", rt.handleHealth)
	r.Get("/version", rt.handleVersion)
	if rt.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", rt.metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(rt.auth.WithAuth)

		r.Get("/question-types", rt.handleQuestionTypes)
		r.Post("/auth/register", rt.handleRegister)
		r.Post("/auth/login", rt.handleLogin)
		r.Get("/surveys/{id}/form", rt.handlePublicForm)
		r.Post("/surveys/{id}/responses", rt.handleSubmit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/surveys", rt.handleListSurveys)
			r.Post("/surveys", rt.handleCreateSurvey)
			r.Get("/surveys/{id}", rt.handleGetSurvey)
			r.Put("/surveys/{id}", rt.handleUpdateSurvey)
			r.Delete("/surveys/{id}", rt.handleDeleteSurvey)
			r.Post("/surveys/{id}/questions", rt.handleAddQuestion)
			r.Post("/surveys/{id}/questions/order", rt.handleReorderQuestions)
			r.Put("/surveys/{id}/questions/{qid}", rt.handleUpdateQuestion)
			r.Delete("/surveys/{id}/questions/{qid}", rt.handleDeleteQuestion)
			r.Get("/surveys/{id}/analytics", rt.handleSummary)
			r.Get("/surveys/{id}/questions/{qid}/analytics", rt.handleQuestionAnalytics)
			r.Get("/surveys/{id}/export", rt.handleExport)
		})
	})
	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	status := http.StatusOK
	body := map[string]any{
		"ok":         true,
		"name":       "OBE Survey API",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.commit,
		"build_time": rt.buildTime,
	}
	if rt.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["ok"] = false
			body["error"] = err.Error()
		}
	}
	rt.writeJSON(w, status, body)
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	rt.writeJSON(w, http.StatusOK, map[string]string{"commit": rt.commit, "build_time": rt.buildTime})
}

func (rt *Router) handleQuestionTypes(w http.ResponseWriter, _ *http.Request) {
	rt.writeJSON(w, http.StatusOK, map[string]any{"types": services.QuestionTypes()})
}

func tenantOf(r *http.Request) string {
	tid, _ := middleware.TenantIDFromContext(r.Context())
	return tid
}
