package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

const campaignRecentHits = 10

type CampaignService struct {
	repo    ports.Repository
	ids     *TrackingIDGenerator
	baseURL string
	now     func() time.Time
}

func NewCampaignService(repo ports.Repository, baseURL string) *CampaignService {
	s := &CampaignService{
		repo:    repo,
		baseURL: baseURL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.ids = NewTrackingIDGenerator(s.trackingIDExists)
	return s
}

func (s *CampaignService) trackingIDExists(ctx context.Context, id string) (bool, error) {
	existing, err := s.repo.GetCampaignByTrackingID(ctx, id)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// CreateCampaign checks tracking ID uniqueness before writing anything.
func (s *CampaignService) CreateCampaign(ctx context.Context, input domain.CampaignInput) (*domain.Campaign, error) {
	customID := strings.TrimSpace(input.CustomTrackingID)
	if !input.GenerateID && customID == "" {
		return nil, domain.ErrInvalidCampaign
	}

	trackingID := customID
	if trackingID != "" {
		taken, err := s.trackingIDExists(ctx, trackingID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrTrackingIDTaken
		}
	} else {
		var err error
		trackingID, err = s.ids.Generate(ctx)
		if err != nil {
			return nil, err
		}
	}

	targetURL := input.TargetURL
	if targetURL == "" {
		targetURL = domain.DefaultTargetURL
	}

	campaign := &domain.Campaign{
		Name:        input.Name,
		Description: input.Description,
		TrackingID:  trackingID,
		TargetURL:   targetURL,
		IsActive:    input.IsActive,
		CreatedAt:   s.now(),
	}

	if err := s.repo.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int64) (*domain.CampaignView, error) {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrCampaignNotFound
	}

	view, err := s.view(ctx, *campaign)
	if err != nil {
		return nil, err
	}
	view.RecentHits, err = s.repo.ListCampaignHits(ctx, id, campaignRecentHits)
	if err != nil {
		return nil, fmt.Errorf("recent hits for campaign %d: %w", id, err)
	}
	return view, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id int64, update domain.CampaignUpdate) (*domain.Campaign, error) {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrCampaignNotFound
	}

	if update.Name != nil {
		campaign.Name = *update.Name
	}
	if update.Description != nil {
		campaign.Description = *update.Description
	}
	if update.TargetURL != nil {
		campaign.TargetURL = *update.TargetURL
		if campaign.TargetURL == "" {
			campaign.TargetURL = domain.DefaultTargetURL
		}
	}
	if update.IsActive != nil {
		campaign.IsActive = *update.IsActive
	}

	if err := s.repo.UpdateCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// DeleteCampaign removes the campaign only; hits recorded against it are kept.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int64) error {
	return s.repo.DeleteCampaign(ctx, id)
}

func (s *CampaignService) ListCampaigns(ctx context.Context, page, limit int) ([]domain.CampaignView, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	campaigns, err := s.repo.ListCampaigns(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountCampaigns(ctx, false)
	if err != nil {
		return nil, 0, err
	}

	views := make([]domain.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		v, err := s.view(ctx, c)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *v)
	}
	return views, total, nil
}

func (s *CampaignService) view(ctx context.Context, c domain.Campaign) (*domain.CampaignView, error) {
	stats, err := s.repo.GetCampaignStats(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("stats for campaign %d: %w", c.ID, err)
	}
	return &domain.CampaignView{
		Campaign:       c,
		TrackingURL:    c.TrackingURL(s.baseURL),
		RequestsCount:  stats.RequestsCount,
		UniqueVisitors: stats.UniqueVisitors,
	}, nil
}

var _ ports.CampaignService = (*CampaignService)(nil)
