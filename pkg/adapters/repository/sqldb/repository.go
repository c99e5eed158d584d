package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq" // PostgreSQL driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type Repository struct {
	db      *sql.DB
	dialect dialect
}

// NewRepository opens dbURL with the driver its scheme implies and applies the schema.
func NewRepository(dbURL string) (*Repository, error) {
	d := dialectFor(dbURL)

	db, err := sql.Open(d.driver, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if d.driver == driverSQLite && isInMemory(dbURL) {
		// in-memory databases vanish with their last connection
		db.SetMaxOpenConns(1)
	}

	if err := migrate(db, d); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, dialect: d}, nil
}

// NewWithDB wraps an already open handle for the named driver
// ("sqlite", "libsql" or "postgres"). The schema is not applied.
func NewWithDB(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, dialect: dialectForDriver(driver)}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) q(query string) string {
	return r.dialect.rebind(query)
}

// --- Campaigns ---

const campaignColumns = `id, name, description, tracking_id, target_url, is_active, created_at`

func (r *Repository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	query := r.q(`INSERT INTO campaigns (name, description, tracking_id, target_url, is_active, created_at)
			  VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		campaign.Name, campaign.Description, campaign.TrackingID, campaign.TargetURL,
		campaign.IsActive, campaign.CreatedAt.UnixNano(),
	).Scan(&campaign.ID)
	if isUniqueViolation(err) {
		return domain.ErrTrackingIDTaken
	}
	return err
}

func (r *Repository) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	query := r.q(`SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`)
	return r.scanCampaign(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetCampaignByTrackingID(ctx context.Context, trackingID string) (*domain.Campaign, error) {
	query := r.q(`SELECT ` + campaignColumns + ` FROM campaigns WHERE tracking_id = ?`)
	return r.scanCampaign(r.db.QueryRowContext(ctx, query, trackingID))
}

func (r *Repository) FindActiveCampaign(ctx context.Context, trackingID string) (*domain.Campaign, error) {
	query := r.q(`SELECT ` + campaignColumns + ` FROM campaigns WHERE tracking_id = ? AND is_active = ?`)
	return r.scanCampaign(r.db.QueryRowContext(ctx, query, trackingID, true))
}

func (r *Repository) scanCampaign(row *sql.Row) (*domain.Campaign, error) {
	var c domain.Campaign
	var createdAt int64
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.TrackingID, &c.TargetURL, &c.IsActive, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = fromNanos(createdAt)
	return &c, nil
}

func (r *Repository) UpdateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	query := r.q(`UPDATE campaigns SET name = ?, description = ?, target_url = ?, is_active = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, campaign.Name, campaign.Description, campaign.TargetURL, campaign.IsActive, campaign.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCampaignNotFound)
}

// DeleteCampaign leaves tracked_hits untouched; their campaign_id keeps the old value.
func (r *Repository) DeleteCampaign(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM campaigns WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCampaignNotFound)
}

func (r *Repository) ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	query := r.q(`SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.TrackingID, &c.TargetURL, &c.IsActive, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = fromNanos(createdAt)
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *Repository) CountCampaigns(ctx context.Context, activeOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM campaigns`
	args := []interface{}{}
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}

	var count int64
	err := r.db.QueryRowContext(ctx, r.q(query), args...).Scan(&count)
	return count, err
}

func (r *Repository) GetCampaignStats(ctx context.Context, campaignID int64) (*domain.CampaignStats, error) {
	query := r.q(`SELECT COUNT(*), COUNT(DISTINCT ip_address) FROM tracked_hits WHERE campaign_id = ?`)

	var stats domain.CampaignStats
	if err := r.db.QueryRowContext(ctx, query, campaignID).Scan(&stats.RequestsCount, &stats.UniqueVisitors); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Tracked hits ---

const hitColumns = `id, tracking_id, campaign_id, ip_address, user_agent, referrer, headers, method, query_params,
	country, city, region, isp, latitude, longitude, captured_at`

// CreateHit is a single INSERT; readers never observe a partial hit.
func (r *Repository) CreateHit(ctx context.Context, hit *domain.TrackedHit) error {
	headersJSON, err := json.Marshal(nonNilHeaders(hit.Headers))
	if err != nil {
		return err
	}
	queryJSON, err := json.Marshal(nonNilQuery(hit.QueryParams))
	if err != nil {
		return err
	}

	query := r.q(`INSERT INTO tracked_hits (` + hitColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		hit.ID, hit.TrackingID, nullInt64(hit.CampaignID), hit.IPAddress, hit.UserAgent, hit.Referrer,
		string(headersJSON), hit.Method, string(queryJSON),
		nullString(hit.Country), nullString(hit.City), nullString(hit.Region), nullString(hit.ISP),
		nullFloat64(hit.Latitude), nullFloat64(hit.Longitude), hit.Timestamp.UnixNano(),
	)
	return err
}

func (r *Repository) GetHit(ctx context.Context, id string) (*domain.TrackedHit, error) {
	query := r.q(`SELECT ` + hitColumns + ` FROM tracked_hits WHERE id = ?`)

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	hits, err := scanHits(rows)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0], nil
}

// ListHitsByTrackingID returns hits newest first.
func (r *Repository) ListHitsByTrackingID(ctx context.Context, trackingID string, limit, offset int) ([]domain.TrackedHit, error) {
	query := r.q(`SELECT ` + hitColumns + ` FROM tracked_hits
			  WHERE tracking_id = ?
			  ORDER BY captured_at DESC, id DESC LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, trackingID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanHits(rows)
}

func (r *Repository) CountHitsByTrackingID(ctx context.Context, trackingID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM tracked_hits WHERE tracking_id = ?`), trackingID).Scan(&count)
	return count, err
}

func (r *Repository) ListCampaignHits(ctx context.Context, campaignID int64, limit int) ([]domain.TrackedHit, error) {
	query := r.q(`SELECT ` + hitColumns + ` FROM tracked_hits
			  WHERE campaign_id = ?
			  ORDER BY captured_at DESC, id DESC LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	return scanHits(rows)
}

func (r *Repository) ListRecentHits(ctx context.Context, limit int) ([]domain.TrackedHit, error) {
	query := r.q(`SELECT ` + hitColumns + ` FROM tracked_hits ORDER BY captured_at DESC, id DESC LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return scanHits(rows)
}

func (r *Repository) GetHitTotals(ctx context.Context) (int64, int64, error) {
	var total, unique int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT ip_address) FROM tracked_hits`).Scan(&total, &unique)
	return total, unique, err
}

func (r *Repository) DumpHits(ctx context.Context) ([]domain.TrackedHit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hitColumns+` FROM tracked_hits ORDER BY captured_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return scanHits(rows)
}

func scanHits(rows *sql.Rows) ([]domain.TrackedHit, error) {
	defer rows.Close()

	var hits []domain.TrackedHit
	for rows.Next() {
		var h domain.TrackedHit
		var (
			campaignID                 sql.NullInt64
			userAgent, referrer        sql.NullString
			headersJSON, queryJSON     []byte
			country, city, region, isp sql.NullString
			latitude, longitude        sql.NullFloat64
			capturedAt                 int64
		)
		if err := rows.Scan(&h.ID, &h.TrackingID, &campaignID, &h.IPAddress, &userAgent, &referrer,
			&headersJSON, &h.Method, &queryJSON,
			&country, &city, &region, &isp, &latitude, &longitude, &capturedAt); err != nil {
			return nil, err
		}

		if campaignID.Valid {
			h.CampaignID = &campaignID.Int64
		}
		h.UserAgent = userAgent.String
		h.Referrer = referrer.String
		h.Country = stringPtr(country)
		h.City = stringPtr(city)
		h.Region = stringPtr(region)
		h.ISP = stringPtr(isp)
		h.Latitude = floatPtr(latitude)
		h.Longitude = floatPtr(longitude)
		h.Timestamp = fromNanos(capturedAt)

		if err := json.Unmarshal(headersJSON, &h.Headers); err != nil {
			return nil, fmt.Errorf("decode headers of hit %s: %w", h.ID, err)
		}
		if err := json.Unmarshal(queryJSON, &h.QueryParams); err != nil {
			return nil, fmt.Errorf("decode query params of hit %s: %w", h.ID, err)
		}
		h.Headers = nonNilHeaders(h.Headers)
		h.QueryParams = nonNilQuery(h.QueryParams)

		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// --- helpers ---

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT")
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nonNilHeaders(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilQuery(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}

// Ensure interface compliance
var _ ports.Repository = (*Repository)(nil)
