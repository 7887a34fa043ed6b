package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/nguyentantai21042004/speech-to-text/internal/api/handlers"
	"github.com/nguyentantai21042004/speech-to-text/internal/api/middleware"
	"github.com/nguyentantai21042004/speech-to-text/internal/config"
)

type Router struct {
	mux         *chi.Mux
	redis       *redis.Client
	cfg         *config.Config
	svc         handlers.TranscriptionService
	engineReady func() bool
}

func NewRouter(rdb *redis.Client, cfg *config.Config, svc handlers.TranscriptionService, engineReady func() bool) *Router {
	return &Router{
		mux:         chi.NewRouter(),
		redis:       rdb,
		cfg:         cfg,
		svc:         svc,
		engineReady: engineReady,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(20, 40)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.redis, rt.engineReady)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.InternalAPIKey(rt.cfg.API.InternalAPIKey))

		transcribeH := handlers.NewTranscribeHandler(rt.svc)
		r.Route("/transcribe", func(r chi.Router) {
			r.Post("/", transcribeH.Submit)
			r.Post("/sync", transcribeH.Sync)
			r.Get("/{request_id}", transcribeH.Status)
		})
	})

	return r
}
