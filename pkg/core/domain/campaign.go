package domain

import (
	"strings"
	"time"
)

// DefaultTargetURL is used when a campaign is created without a destination.
const DefaultTargetURL = "https://google.com"

// Campaign maps a tracking identifier to a redirect destination.
type Campaign struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TrackingID  string    `json:"tracking_id"`
	TargetURL   string    `json:"target_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrackingURL is the public capture URL for the campaign.
func (c *Campaign) TrackingURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/track/" + c.TrackingID + "/"
}

// CampaignStats holds per-campaign hit aggregates.
type CampaignStats struct {
	RequestsCount  int64 `json:"requests_count"`
	UniqueVisitors int64 `json:"unique_visitors"`
}

// CampaignView is a campaign decorated for the admin API.
type CampaignView struct {
	Campaign
	TrackingURL    string       `json:"tracking_url"`
	RequestsCount  int64        `json:"requests_count"`
	UniqueVisitors int64        `json:"unique_visitors"`
	RecentHits     []TrackedHit `json:"recent_requests,omitempty"`
}

// CampaignInput carries the fields an administrator supplies on creation.
// Either GenerateID or CustomTrackingID must be set.
type CampaignInput struct {
	Name             string
	Description      string
	TargetURL        string
	IsActive         bool
	GenerateID       bool
	CustomTrackingID string
}

// CampaignUpdate is a partial update; nil fields are left unchanged.
// The tracking identifier cannot be changed.
type CampaignUpdate struct {
	Name        *string
	Description *string
	TargetURL   *string
	IsActive    *bool
}
