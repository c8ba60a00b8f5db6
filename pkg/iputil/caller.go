package iputil

import (
	"net"
	"net/http"
	"strings"
)

// CallerAddr determines the caller's apparent IP address from a request.
//
// With trustedHops > 0 and a non-empty X-Forwarded-For header, the first
// comma-separated entry (trimmed) is taken as the caller IP — trusting
// exactly the immediate reverse proxy hop to have appended honestly. With
// trustedHops == 0 the header is ignored. In either fallback case the
// transport-level peer address is used.
//
// This is a best-effort heuristic, not a security boundary: the extracted
// value is not validated. forwardedFor returns the raw header, empty when
// absent.
func CallerAddr(r *http.Request, trustedHops int) (callerIP, forwardedFor string) {
	forwardedFor = r.Header.Get("X-Forwarded-For")

	if trustedHops > 0 && forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip, forwardedFor
		}
	}

	return peerAddr(r), forwardedFor
}

// peerAddr returns the host part of the transport-level peer address
func peerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (seen in tests and unix sockets)
		return r.RemoteAddr
	}
	return host
}
