package domain

import "time"

// TrackedHit is the persisted record of one inbound request to a tracking URL.
// It is written once and never updated.
type TrackedHit struct {
	ID          string              `json:"id"`
	TrackingID  string              `json:"tracking_id"`
	CampaignID  *int64              `json:"campaign_id,omitempty"` // best-effort link, not a foreign key
	IPAddress   string              `json:"ip_address"`
	UserAgent   string              `json:"user_agent"`
	Referrer    string              `json:"referrer"`
	Headers     map[string]string   `json:"headers"`
	Method      string              `json:"method"`
	QueryParams map[string][]string `json:"query_params"`
	Country     *string             `json:"country,omitempty"`
	City        *string             `json:"city,omitempty"`
	Region      *string             `json:"region,omitempty"`
	ISP         *string             `json:"isp,omitempty"`
	Latitude    *float64            `json:"latitude,omitempty"`
	Longitude   *float64            `json:"longitude,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// LocationDisplay renders "City, Country", "Country" or "Unknown".
func (h *TrackedHit) LocationDisplay() string {
	country := deref(h.Country)
	city := deref(h.City)
	if city != "" && country != "" {
		return city + ", " + country
	}
	if country != "" {
		return country
	}
	return "Unknown"
}

// ApplyGeo copies the non-empty fields of a lookup result onto the hit.
func (h *TrackedHit) ApplyGeo(geo GeoResult) {
	h.Country = optional(geo.Country)
	h.City = optional(geo.City)
	h.Region = optional(geo.RegionName)
	h.ISP = optional(geo.ISP)
	h.Latitude = geo.Latitude
	h.Longitude = geo.Longitude
}

// HitSummary is the row shape served by the recent-requests API.
type HitSummary struct {
	ID        string `json:"id"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Method    string `json:"method"`
}

// Summary projects the hit onto the recent-requests row shape.
func (h *TrackedHit) Summary() HitSummary {
	return HitSummary{
		ID:        h.ID,
		IPAddress: h.IPAddress,
		UserAgent: h.UserAgent,
		Location:  h.LocationDisplay(),
		Timestamp: h.Timestamp.Format(time.RFC3339Nano),
		Method:    h.Method,
	}
}

// DashboardStats aggregates the overview shown on the admin dashboard.
type DashboardStats struct {
	TotalRequests   int64        `json:"total_requests"`
	UniqueIPs       int64        `json:"unique_ips"`
	ActiveCampaigns int64        `json:"active_campaigns"`
	Campaigns       []Campaign   `json:"campaigns"`
	RecentHits      []TrackedHit `json:"recent_requests"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
