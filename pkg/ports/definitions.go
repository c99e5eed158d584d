package ports

import (
	"context"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
)

// CampaignRegistry is the read side of campaigns consulted during capture.
type CampaignRegistry interface {
	// FindActiveCampaign returns nil, nil when no active campaign uses trackingID.
	FindActiveCampaign(ctx context.Context, trackingID string) (*domain.Campaign, error)
}

// HitWriter persists captured hits. Every call is an independent insert.
type HitWriter interface {
	CreateHit(ctx context.Context, hit *domain.TrackedHit) error
}

// CampaignRepository defines storage operations for campaigns
type CampaignRepository interface {
	CampaignRegistry
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	GetCampaignByTrackingID(ctx context.Context, trackingID string) (*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *domain.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
	ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	CountCampaigns(ctx context.Context, activeOnly bool) (int64, error)
	GetCampaignStats(ctx context.Context, campaignID int64) (*domain.CampaignStats, error)
}

// HitRepository defines storage operations for tracked hits
type HitRepository interface {
	HitWriter
	GetHit(ctx context.Context, id string) (*domain.TrackedHit, error)
	ListHitsByTrackingID(ctx context.Context, trackingID string, limit, offset int) ([]domain.TrackedHit, error)
	CountHitsByTrackingID(ctx context.Context, trackingID string) (int64, error)
	ListCampaignHits(ctx context.Context, campaignID int64, limit int) ([]domain.TrackedHit, error)
	ListRecentHits(ctx context.Context, limit int) ([]domain.TrackedHit, error)
	GetHitTotals(ctx context.Context) (total int64, uniqueIPs int64, err error)
	DumpHits(ctx context.Context) ([]domain.TrackedHit, error) // For export
}

// Repository is the full storage collaborator.
type Repository interface {
	CampaignRepository
	HitRepository
	Close() error
}

// GeolocationProvider resolves an address to approximate location data.
// Implementations never fail: any problem yields an empty GeoResult.
type GeolocationProvider interface {
	Lookup(ctx context.Context, ipAddress string) domain.GeoResult
	Name() string
}

// CaptureService records a hit and decides where to send the caller.
type CaptureService interface {
	Capture(ctx context.Context, req domain.InboundRequest, trackingID string) (string, error)
}

// CampaignService defines the business logic for campaign administration
type CampaignService interface {
	CreateCampaign(ctx context.Context, input domain.CampaignInput) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*domain.CampaignView, error)
	UpdateCampaign(ctx context.Context, id int64, update domain.CampaignUpdate) (*domain.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error
	ListCampaigns(ctx context.Context, page, limit int) ([]domain.CampaignView, int64, error)
}

// HitService defines the read side over captured hits
type HitService interface {
	RecentHits(ctx context.Context, trackingID string) ([]domain.HitSummary, error)
	ListHits(ctx context.Context, trackingID string, page, limit int) ([]domain.TrackedHit, int64, error)
	GetHit(ctx context.Context, id string) (*domain.TrackedHit, error)
	GetDashboard(ctx context.Context) (*domain.DashboardStats, error)
}
