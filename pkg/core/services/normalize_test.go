package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
)

func TestNormalizeRequest_Headers(t *testing.T) {
	req := domain.InboundRequest{
		Method: "GET",
		Host:   "track.example",
		Header: map[string][]string{
			"HTTP_USER_AGENT": {"Mozilla/5.0"},
			"accept_language": {"en-US"},
			"X-Forwarded-For": {"203.0.113.7"},
			"Referer":         {"https://ref.example/page"},
		},
	}

	got := NormalizeRequest(req)

	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, map[string]string{
		"User-Agent":      "Mozilla/5.0",
		"Accept-Language": "en-US",
		"X-Forwarded-For": "203.0.113.7",
		"Referer":         "https://ref.example/page",
		"Host":            "track.example",
	}, got.Headers)
	assert.Equal(t, "Mozilla/5.0", got.UserAgent)
	assert.Equal(t, "https://ref.example/page", got.Referrer)
}

func TestNormalizeRequest_MergesDuplicateNames(t *testing.T) {
	req := domain.InboundRequest{
		Header: map[string][]string{
			"HTTP_X_TAG": {"a"},
			"X-Tag":      {"b", "c"},
		},
	}

	got := NormalizeRequest(req)

	assert.Equal(t, "a, b, c", got.Headers["X-Tag"])
}

func TestNormalizeRequest_MissingValuesAreEmpty(t *testing.T) {
	got := NormalizeRequest(domain.InboundRequest{Method: "POST"})

	assert.NotNil(t, got.Headers)
	assert.NotNil(t, got.QueryParams)
	assert.Empty(t, got.Headers)
	assert.Empty(t, got.QueryParams)
	assert.Equal(t, "", got.UserAgent)
	assert.Equal(t, "", got.Referrer)
}

func TestNormalizeRequest_QueryKeepsRepeatedValues(t *testing.T) {
	query := map[string][]string{"tag": {"a", "b"}, "redirect": {"https://x.example"}}
	got := NormalizeRequest(domain.InboundRequest{Query: query})

	assert.Equal(t, query, got.QueryParams)

	// the snapshot does not alias the inbound request
	query["tag"][0] = "changed"
	assert.Equal(t, "a", got.QueryParams["tag"][0])
}

func TestCanonicalHeaderName(t *testing.T) {
	for in, want := range map[string]string{
		"HTTP_USER_AGENT": "User-Agent",
		"http_user_agent": "User-Agent",
		"user_agent":      "User-Agent",
		"user-agent":      "User-Agent",
		"X-FORWARDED-FOR": "X-Forwarded-For",
		"HTTP_":           "Http-",
	} {
		assert.Equal(t, want, canonicalHeaderName(in), in)
	}
}

func TestNormalizeRequest_ReplacesInvalidUTF8(t *testing.T) {
	got := NormalizeRequest(domain.InboundRequest{
		Header: map[string][]string{"User-Agent": {"agent\xff\xfe"}},
		Query:  map[string][]string{"q": {"a\xffb"}},
	})

	assert.Equal(t, "agent\uFFFD", got.UserAgent)
	assert.Equal(t, []string{"a\uFFFDb"}, got.QueryParams["q"])
}
