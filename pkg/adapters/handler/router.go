package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, capture ports.CaptureService, hits ports.HitService, campaigns ports.CampaignService) http.Handler {
	h := NewHTTPHandler(capture, hits)
	ch := NewCampaignHandler(campaigns)
	mw := NewMiddleware(cfg)
	authHandler := NewAuthHandler(cfg)

	r := chi.NewRouter()
	// No RealIP: the capture pipeline reads X-Forwarded-For itself and
	// needs the untouched transport peer as a fallback.
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(Metrics)

	// Public Routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/track/{trackingID}", func(r chi.Router) {
		r.Get("/", h.Track)
		r.Post("/", h.Track)
	})

	r.Get("/auth/google/login", authHandler.Login)
	r.Get("/auth/google/callback", authHandler.Callback)
	r.Get("/auth/logout", authHandler.Logout)

	// Protected Routes
	r.Group(func(r chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   cfg.CORSAllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		if cfg.AdminRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.AdminRateLimit, time.Minute))
		}
		r.Use(mw.AuthMiddleware)

		r.Route("/api/requests/{trackingID}", func(r chi.Router) {
			r.Get("/", h.RecentRequests)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)
			r.Get("/tracking/{trackingID}/hits", h.ListHits)
			r.Get("/hits/{id}", h.GetHit)

			r.Post("/campaigns", ch.CreateCampaign)
			r.Get("/campaigns", ch.ListCampaigns)
			r.Get("/campaigns/{id}", ch.GetCampaign)
			r.Put("/campaigns/{id}", ch.UpdateCampaign)
			r.Delete("/campaigns/{id}", ch.DeleteCampaign)
		})
	})

	return r
}
