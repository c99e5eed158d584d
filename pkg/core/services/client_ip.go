package services

import (
	"net"
	"strings"
)

// ForwardedForHeader is the proxy header consulted for the originating client.
const ForwardedForHeader = "X-Forwarded-For"

// ResolveClientIP returns the first X-Forwarded-For entry, or the transport
// peer when the header is absent. Values are not validated: the header is
// client-controlled and is recorded as given.
func ResolveClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	// RemoteAddr is host:port on a live connection
	host, _, err := net.SplitHostPort(remoteAddr)
	if err == nil {
		return host
	}
	return remoteAddr
}
