package services

import (
	"context"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

const (
	// RecentHitsLimit bounds the recent-requests API.
	RecentHitsLimit = 100

	defaultHitsPageSize = 50
	dashboardCampaigns  = 5
	dashboardRecentHits = 10
)

type HitService struct {
	repo ports.Repository
}

func NewHitService(repo ports.Repository) *HitService {
	return &HitService{repo: repo}
}

// RecentHits returns at most RecentHitsLimit hits for trackingID, newest first.
func (s *HitService) RecentHits(ctx context.Context, trackingID string) ([]domain.HitSummary, error) {
	hits, err := s.repo.ListHitsByTrackingID(ctx, trackingID, RecentHitsLimit, 0)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HitSummary, 0, len(hits))
	for i := range hits {
		out = append(out, hits[i].Summary())
	}
	return out, nil
}

func (s *HitService) ListHits(ctx context.Context, trackingID string, page, limit int) ([]domain.TrackedHit, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHitsPageSize
	}
	offset := (page - 1) * limit

	hits, err := s.repo.ListHitsByTrackingID(ctx, trackingID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.CountHitsByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, 0, err
	}
	return hits, count, nil
}

func (s *HitService) GetHit(ctx context.Context, id string) (*domain.TrackedHit, error) {
	hit, err := s.repo.GetHit(ctx, id)
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, domain.ErrHitNotFound
	}
	return hit, nil
}

func (s *HitService) GetDashboard(ctx context.Context) (*domain.DashboardStats, error) {
	total, uniqueIPs, err := s.repo.GetHitTotals(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountCampaigns(ctx, true)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.repo.ListCampaigns(ctx, dashboardCampaigns, 0)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListRecentHits(ctx, dashboardRecentHits)
	if err != nil {
		return nil, err
	}

	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	if recent == nil {
		recent = []domain.TrackedHit{}
	}
	return &domain.DashboardStats{
		TotalRequests:   total,
		UniqueIPs:       uniqueIPs,
		ActiveCampaigns: active,
		Campaigns:       campaigns,
		RecentHits:      recent,
	}, nil
}

var _ ports.HitService = (*HitService)(nil)
