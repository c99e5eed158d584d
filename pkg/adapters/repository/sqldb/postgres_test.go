package sqldb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, driverPostgres), mock
}

func TestPostgres_CreateCampaignUsesNumberedPlaceholders(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Unix(0, 1700000000000000000).UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)).
		WithArgs("Spring", "", "abc123", "https://dest.example", true, created.UnixNano()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	c := &domain.Campaign{Name: "Spring", TrackingID: "abc123", TargetURL: "https://dest.example", IsActive: true, CreatedAt: created}
	require.NoError(t, repo.CreateCampaign(context.Background(), c))
	assert.Equal(t, int64(42), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateCampaignUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO campaigns`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	c := &domain.Campaign{Name: "Spring", TrackingID: "abc123", TargetURL: "https://dest.example", IsActive: true, CreatedAt: time.Now()}
	err := repo.CreateCampaign(context.Background(), c)
	assert.ErrorIs(t, err, domain.ErrTrackingIDTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateHitPropagatesErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tracked_hits`)).
		WillReturnError(boom)

	hit := &domain.TrackedHit{ID: "h1", TrackingID: "abc123", IPAddress: "203.0.113.7", Method: "GET", Timestamp: time.Now()}
	err := repo.CreateHit(context.Background(), hit)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateHitArguments(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Unix(0, 1700000000123456789).UTC()
	country := "Germany"

	mock.ExpectExec(regexp.QuoteMeta(`$16)`)).
		WithArgs("h1", "abc123", nil, "203.0.113.7", "ua", "", `{"User-Agent":"ua"}`, "GET", `{}`,
			country, nil, nil, nil, nil, nil, at.UnixNano()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	hit := &domain.TrackedHit{
		ID:         "h1",
		TrackingID: "abc123",
		IPAddress:  "203.0.113.7",
		UserAgent:  "ua",
		Headers:    map[string]string{"User-Agent": "ua"},
		Method:     "GET",
		Country:    &country,
		Timestamp:  at,
	}
	require.NoError(t, repo.CreateHit(context.Background(), hit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteCampaignNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM campaigns WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteCampaign(context.Background(), 9), domain.ErrCampaignNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindActiveCampaignNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE tracking_id = $1 AND is_active = $2`)).
		WithArgs("abc123", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "tracking_id", "target_url", "is_active", "created_at"}))

	c, err := repo.FindActiveCampaign(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}
