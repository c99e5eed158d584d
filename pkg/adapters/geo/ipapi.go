package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/metrics"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

const (
	DefaultBaseURL = "http://ip-api.com/json"
	DefaultTimeout = 3 * time.Second

	ipAPIFields = "status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,query"
)

// ipAPIResponse is the JSON body returned by ip-api.com
type ipAPIResponse struct {
	Status  string `json:"status"`  // "success" or "fail"
	Message string `json:"message"` // reason when status is "fail"
	Query   string `json:"query"`
	domain.GeoResult
}

// Options configures an IPAPIClient. Zero values select defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client

	// BreakerFailures is the number of consecutive transport failures that
	// opens the breaker; BreakerCooldown is how long it stays open.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// IPAPIClient looks addresses up against ip-api.com. One call per lookup,
// no retries and no caching.
type IPAPIClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*ipAPIResponse]
}

func NewIPAPIClient(opts Options) *IPAPIClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = newHTTPClient(opts.Timeout)
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}

	c := &IPAPIClient{
		client:  opts.Client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[*ipAPIResponse](gobreaker.Settings{
		Name:        "ip-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Geolocation circuit breaker state changed")
		},
	})
	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: timeout, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Name returns the provider name.
func (c *IPAPIClient) Name() string {
	return "ip-api.com"
}

// Lookup returns the provider's data for ipAddress, or an empty result on any
// failure, including a "fail" status for private or malformed addresses.
func (c *IPAPIClient) Lookup(ctx context.Context, ipAddress string) domain.GeoResult {
	if ipAddress == "" {
		metrics.RecordGeoLookup(c.Name(), metrics.GeoSkipped, 0)
		return domain.GeoResult{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (*ipAPIResponse, error) {
		return c.query(ctx, ipAddress)
	})
	took := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordGeoLookup(c.Name(), metrics.GeoBreakerOpen, took)
		logging.Debug().Str("ip", ipAddress).Msg("Geolocation skipped, breaker open")
		return domain.GeoResult{}
	case err != nil:
		metrics.RecordGeoLookup(c.Name(), metrics.GeoError, took)
		logging.Warn().Err(err).Str("ip", ipAddress).Msg("Location lookup failed")
		return domain.GeoResult{}
	case result.Status != "success":
		metrics.RecordGeoLookup(c.Name(), metrics.GeoFail, took)
		logging.Debug().Str("ip", ipAddress).Str("status", result.Status).Str("message", result.Message).Msg("Location lookup unsuccessful")
		return domain.GeoResult{}
	}

	metrics.RecordGeoLookup(c.Name(), metrics.GeoSuccess, took)
	return result.GeoResult
}

// query performs the HTTP call. Only transport-level problems are errors;
// a decoded "fail" status is returned as a result so it does not trip the breaker.
func (c *IPAPIClient) query(ctx context.Context, ipAddress string) (*ipAPIResponse, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", c.baseURL, url.PathEscape(ipAddress), ipAPIFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query ip-api.com: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api.com returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ip-api.com response: %w", err)
	}
	return &result, nil
}

// NewProvider returns the ip-api.com client, or Disabled when lookups are off.
func NewProvider(enabled bool, baseURL string, timeout time.Duration) ports.GeolocationProvider {
	if !enabled {
		return Disabled{}
	}
	return NewIPAPIClient(Options{BaseURL: baseURL, Timeout: timeout})
}

// Disabled is a provider that never looks anything up.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Lookup(context.Context, string) domain.GeoResult { return domain.GeoResult{} }

var (
	_ ports.GeolocationProvider = (*IPAPIClient)(nil)
	_ ports.GeolocationProvider = Disabled{}
)
