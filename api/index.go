package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/geo"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Note: On Vercel, db.sqlite is ephemeral unless DATABASE_URL points at Turso or PostgreSQL
	repo, err := sqldb.NewRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	geoProvider := geo.NewProvider(cfg.GeoEnabled, cfg.GeoBaseURL, cfg.GeoTimeout)
	mux = handler.NewRouter(cfg,
		services.NewCaptureService(repo, repo, geoProvider, cfg.FallbackRedirectURL),
		services.NewHitService(repo),
		services.NewCampaignService(repo, cfg.BaseURL),
	)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
