package sqldb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := NewRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string       { return &s }
func floatPtr64(f float64) *float64 { return &f }

func newHit(id, trackingID, ip string, at time.Time) *domain.TrackedHit {
	return &domain.TrackedHit{
		ID:          id,
		TrackingID:  trackingID,
		IPAddress:   ip,
		Method:      "GET",
		Headers:     map[string]string{"User-Agent": "test"},
		QueryParams: map[string][]string{},
		Timestamp:   at,
	}
}

func TestCampaignLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := &domain.Campaign{
		Name:       "Spring",
		TrackingID: "abc123",
		TargetURL:  "https://dest.example/x",
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreateCampaign(ctx, c))
	assert.NotZero(t, c.ID)

	got, err := repo.GetCampaignByTrackingID(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://dest.example/x", got.TargetURL)
	assert.True(t, got.CreatedAt.Equal(c.CreatedAt))

	active, err := repo.FindActiveCampaign(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, active)

	got.IsActive = false
	require.NoError(t, repo.UpdateCampaign(ctx, got))

	active, err = repo.FindActiveCampaign(ctx, "abc123")
	require.NoError(t, err)
	assert.Nil(t, active, "inactive campaigns are not matched")

	n, err := repo.CountCampaigns(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = repo.CountCampaigns(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteCampaign(ctx, c.ID))
	assert.ErrorIs(t, repo.DeleteCampaign(ctx, c.ID), domain.ErrCampaignNotFound)

	missing, err := repo.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateCampaign_DuplicateTrackingID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &domain.Campaign{Name: "a", TrackingID: "dup", TargetURL: "https://a.example", IsActive: true, CreatedAt: time.Now()}
	second := &domain.Campaign{Name: "b", TrackingID: "dup", TargetURL: "https://b.example", IsActive: true, CreatedAt: time.Now()}

	require.NoError(t, repo.CreateCampaign(ctx, first))
	assert.ErrorIs(t, repo.CreateCampaign(ctx, second), domain.ErrTrackingIDTaken)
}

func TestCreateHit_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	campaignID := int64(7)
	at := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	hit := &domain.TrackedHit{
		ID:          "11111111-1111-1111-1111-111111111111",
		TrackingID:  "abc123",
		CampaignID:  &campaignID,
		IPAddress:   "203.0.113.7",
		UserAgent:   "curl/8.0",
		Referrer:    "https://ref.example",
		Headers:     map[string]string{"User-Agent": "curl/8.0", "X-Forwarded-For": "203.0.113.7"},
		Method:      "POST",
		QueryParams: map[string][]string{"tag": {"a", "b"}},
		Country:     strPtr("Germany"),
		City:        strPtr("Berlin"),
		Region:      strPtr("Land Berlin"),
		ISP:         strPtr("Example ISP"),
		Latitude:    floatPtr64(52.52),
		Longitude:   floatPtr64(13.405),
		Timestamp:   at,
	}
	require.NoError(t, repo.CreateHit(ctx, hit))

	got, err := repo.GetHit(ctx, hit.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, at.Equal(got.Timestamp), "timestamp keeps nanosecond precision")

	got.Timestamp = hit.Timestamp
	assert.Equal(t, hit, got)
}

func TestCreateHit_NoGeoNoCampaign(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	hit := newHit("22222222-2222-2222-2222-222222222222", "zzz999", "10.0.0.1", time.Now().UTC())
	hit.QueryParams = nil
	require.NoError(t, repo.CreateHit(ctx, hit))

	got, err := repo.GetHit(ctx, hit.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CampaignID)
	assert.Nil(t, got.Country)
	assert.Nil(t, got.City)
	assert.Nil(t, got.Region)
	assert.Nil(t, got.ISP)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
	assert.NotNil(t, got.QueryParams)
	assert.Equal(t, "Unknown", got.LocationDisplay())
}

func TestGetHit_Missing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetHit(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListHitsByTrackingID_NewestFirstAndBounded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("00000000-0000-0000-0000-%012d", i)
		require.NoError(t, repo.CreateHit(ctx, newHit(id, "abc123", "203.0.113.7", base.Add(time.Duration(i)*time.Millisecond))))
	}
	require.NoError(t, repo.CreateHit(ctx, newHit("other", "other", "203.0.113.8", base.Add(time.Hour))))

	hits, err := repo.ListHitsByTrackingID(ctx, "abc123", 100, 0)
	require.NoError(t, err)
	require.Len(t, hits, 100)
	for i := 1; i < len(hits); i++ {
		assert.True(t, hits[i-1].Timestamp.After(hits[i].Timestamp), "hits must be strictly newest first")
	}
	assert.Equal(t, "00000000-0000-0000-0000-000000000119", hits[0].ID)

	count, err := repo.CountHitsByTrackingID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(120), count)

	page2, err := repo.ListHitsByTrackingID(ctx, "abc123", 50, 100)
	require.NoError(t, err)
	assert.Len(t, page2, 20)
}

func TestCampaignStatsAndTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := &domain.Campaign{Name: "c", TrackingID: "abc123", TargetURL: "https://x.example", IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateCampaign(ctx, c))

	now := time.Now().UTC()
	for i, ip := range []string{"203.0.113.1", "203.0.113.1", "203.0.113.2"} {
		h := newHit(fmt.Sprintf("hit-%d", i), "abc123", ip, now.Add(time.Duration(i)*time.Second))
		h.CampaignID = &c.ID
		require.NoError(t, repo.CreateHit(ctx, h))
	}
	require.NoError(t, repo.CreateHit(ctx, newHit("stray", "zzz999", "203.0.113.3", now)))

	stats, err := repo.GetCampaignStats(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.RequestsCount)
	assert.Equal(t, int64(2), stats.UniqueVisitors)

	total, unique, err := repo.GetHitTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(3), unique)

	recent, err := repo.ListCampaignHits(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "hit-2", recent[0].ID)

	// deleting the campaign keeps its history
	require.NoError(t, repo.DeleteCampaign(ctx, c.ID))
	dump, err := repo.DumpHits(ctx)
	require.NoError(t, err)
	assert.Len(t, dump, 4)
}
