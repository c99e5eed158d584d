package services

import (
	"net/textproto"
	"sort"
	"strings"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
)

const cgiHeaderPrefix = "HTTP_"

// NormalizeRequest builds the header and query snapshots stored with a hit.
func NormalizeRequest(req domain.InboundRequest) domain.NormalizedRequest {
	keys := make([]string, 0, len(req.Header))
	for key := range req.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	headers := make(map[string]string, len(keys)+1)
	for _, key := range keys {
		values := req.Header[key]
		name := canonicalHeaderName(key)
		if name == "" {
			continue
		}
		joined := validUTF8(strings.Join(values, ", "))
		if prev, ok := headers[name]; ok && prev != "" {
			joined = prev + ", " + joined
		}
		headers[name] = joined
	}
	if req.Host != "" {
		if _, ok := headers["Host"]; !ok {
			headers["Host"] = validUTF8(req.Host)
		}
	}

	query := make(map[string][]string, len(req.Query))
	for key, values := range req.Query {
		copied := make([]string, len(values))
		for i, v := range values {
			copied[i] = validUTF8(v)
		}
		query[validUTF8(key)] = copied
	}

	return domain.NormalizedRequest{
		Method:      req.Method,
		Headers:     headers,
		QueryParams: query,
		Referrer:    headers["Referer"],
		UserAgent:   headers["User-Agent"],
	}
}

// validUTF8 replaces invalid byte sequences; PostgreSQL rejects them in TEXT columns.
func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// canonicalHeaderName maps "HTTP_USER_AGENT", "user_agent" and "user-agent"
// to "User-Agent".
func canonicalHeaderName(key string) string {
	key = strings.TrimSpace(key)
	if len(key) > len(cgiHeaderPrefix) && strings.EqualFold(key[:len(cgiHeaderPrefix)], cgiHeaderPrefix) {
		key = key[len(cgiHeaderPrefix):]
	}
	key = strings.ReplaceAll(key, "_", "-")
	return textproto.CanonicalMIMEHeaderKey(strings.ToLower(validUTF8(key)))
}
