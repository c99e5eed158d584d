package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/metrics"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

// RedirectOverrideParam is the query parameter that picks the destination for
// hits whose tracking ID has no active campaign.
const RedirectOverrideParam = "redirect"

// ErrCaptureFailed wraps persistence failures, the only error Capture returns.
var ErrCaptureFailed = errors.New("failed to record hit")

type CaptureService struct {
	registry    ports.CampaignRegistry
	hits        ports.HitWriter
	geo         ports.GeolocationProvider
	fallbackURL string

	now   func() time.Time
	newID func() string
}

func NewCaptureService(registry ports.CampaignRegistry, hits ports.HitWriter, geo ports.GeolocationProvider, fallbackURL string) *CaptureService {
	if fallbackURL == "" {
		fallbackURL = domain.DefaultTargetURL
	}
	return &CaptureService{
		registry:    registry,
		hits:        hits,
		geo:         geo,
		fallbackURL: fallbackURL,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Capture records one hit against trackingID and returns the redirect target.
// Campaign and geolocation problems degrade the record; only a failed insert
// is returned, and in that case the hit is lost.
func (s *CaptureService) Capture(ctx context.Context, req domain.InboundRequest, trackingID string) (string, error) {
	start := time.Now()
	log := logging.Ctx(ctx)

	trackingID = validUTF8(trackingID)
	normalized := NormalizeRequest(req)
	ip := ResolveClientIP(normalized.Headers[ForwardedForHeader], req.RemoteAddr)

	campaign := s.lookupCampaign(ctx, trackingID)
	destination := s.destination(campaign, normalized.QueryParams)

	hit := &domain.TrackedHit{
		ID:          s.newID(),
		TrackingID:  trackingID,
		IPAddress:   ip,
		UserAgent:   normalized.UserAgent,
		Referrer:    normalized.Referrer,
		Headers:     normalized.Headers,
		Method:      normalized.Method,
		QueryParams: normalized.QueryParams,
		Timestamp:   s.now(),
	}
	if campaign != nil {
		id := campaign.ID
		hit.CampaignID = &id
	}
	hit.ApplyGeo(s.locate(ctx, ip))

	if err := s.hits.CreateHit(ctx, hit); err != nil {
		metrics.CaptureFailures.Inc()
		log.Error().Err(err).
			Str("tracking_id", trackingID).
			Str("ip", ip).
			Msg("Failed to persist hit")
		return "", fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	metrics.RecordHit(campaign != nil, time.Since(start))
	log.Info().
		Str("tracking_id", trackingID).
		Str("ip", ip).
		Str("location", hit.LocationDisplay()).
		Bool("campaign", campaign != nil).
		Str("method", hit.Method).
		Msg("Tracked hit")

	return destination, nil
}

// lookupCampaign treats registry errors like an unknown tracking ID so a
// registry outage never blocks capture.
func (s *CaptureService) lookupCampaign(ctx context.Context, trackingID string) *domain.Campaign {
	campaign, err := s.registry.FindActiveCampaign(ctx, trackingID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("tracking_id", trackingID).Msg("Campaign lookup failed, capturing without campaign")
		return nil
	}
	if campaign != nil && !campaign.IsActive {
		return nil
	}
	return campaign
}

func (s *CaptureService) destination(campaign *domain.Campaign, query map[string][]string) string {
	if campaign != nil && campaign.TargetURL != "" {
		return campaign.TargetURL
	}
	if values := query[RedirectOverrideParam]; len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return s.fallbackURL
}

func (s *CaptureService) locate(ctx context.Context, ip string) domain.GeoResult {
	if s.geo == nil || ip == "" {
		return domain.GeoResult{}
	}
	return s.geo.Lookup(ctx, ip)
}

var _ ports.CaptureService = (*CaptureService)(nil)
