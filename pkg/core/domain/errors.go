package domain

import "errors"

var (
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrHitNotFound         = errors.New("request not found")
	ErrTrackingIDTaken     = errors.New("tracking ID is already in use")
	ErrTrackingIDExhausted = errors.New("could not generate a unique tracking ID")
	ErrInvalidCampaign     = errors.New("either generate an ID automatically or provide a custom tracking ID")
)
