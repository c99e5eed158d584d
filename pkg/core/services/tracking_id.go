package services

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
)

const (
	trackingIDCharset  = "abcdefghijklmnopqrstuvwxyz0123456789"
	trackingIDLength   = 8
	trackingIDAttempts = 10
)

// TrackingIDGenerator produces tracking IDs not yet used by any campaign.
type TrackingIDGenerator struct {
	exists   func(ctx context.Context, id string) (bool, error)
	random   func() (string, error)
	attempts int
}

func NewTrackingIDGenerator(exists func(ctx context.Context, id string) (bool, error)) *TrackingIDGenerator {
	return &TrackingIDGenerator{
		exists:   exists,
		random:   func() (string, error) { return generateTrackingID(trackingIDLength) },
		attempts: trackingIDAttempts,
	}
}

// Generate retries a bounded number of times before giving up with
// domain.ErrTrackingIDExhausted.
func (g *TrackingIDGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < g.attempts; i++ {
		id, err := g.random()
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", domain.ErrTrackingIDExhausted
}

func generateTrackingID(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingIDCharset))))
		if err != nil {
			return "", err
		}
		b[i] = trackingIDCharset[num.Int64()]
	}
	return string(b), nil
}
