package domain

// InboundRequest is the transport-neutral view of a hit handed to the capture pipeline.
// Header keys may use any casing or CGI-style HTTP_ prefixes.
type InboundRequest struct {
	Method     string
	RemoteAddr string
	Host       string
	Header     map[string][]string
	Query      map[string][]string
}

// NormalizedRequest is the canonical record shape derived from an InboundRequest.
type NormalizedRequest struct {
	Method      string
	Headers     map[string]string
	QueryParams map[string][]string
	Referrer    string
	UserAgent   string
}
