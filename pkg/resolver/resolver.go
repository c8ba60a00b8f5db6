// Package resolver performs the forward DNS lookups behind /aws-public-ip,
// restricted to the IPv4 address family.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"ip-witness/pkg/iputil"
	"ip-witness/pkg/logging"
)

// ErrNoIPv4 indicates a lookup that succeeded but produced no valid IPv4
// address (an IPv6-only host, typically). Handlers map it to HTTP 502 and
// attach the raw resolver output for diagnosis.
var ErrNoIPv4 = errors.New("lookup returned no IPv4 address")

// Result holds the outcome of a hostname lookup
type Result struct {
	// IP is the first valid IPv4 address returned by the lookup
	IP string

	// Raw lists every address string the lookup produced, in order
	Raw []string
}

// Resolver resolves a hostname to its IPv4 address
type Resolver interface {
	// LookupIPv4 performs a single forward lookup of host. On ErrNoIPv4
	// the returned Result carries the raw addresses for diagnosis; on any
	// other error the Result is nil.
	LookupIPv4(ctx context.Context, host string) (*Result, error)
}

// SystemResolver delegates to the operating system's resolver, restricted
// to the A record family. Single attempt, platform-default timeout.
type SystemResolver struct {
	logger *logging.Logger
}

// NewSystem creates a resolver backed by the OS resolver
func NewSystem(logger *logging.Logger) *SystemResolver {
	return &SystemResolver{logger: logger}
}

// LookupIPv4 resolves host via the system resolver
func (r *SystemResolver) LookupIPv4(ctx context.Context, host string) (*Result, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		r.logger.Warn("System DNS lookup failed", "host", host, "error", err)
		return nil, fmt.Errorf("failed to resolve %s: %w", host, err)
	}

	raw := make([]string, 0, len(ips))
	for _, ip := range ips {
		raw = append(raw, ip.String())
	}

	result := selectIPv4(raw)
	if result.IP == "" {
		r.logger.Warn("System DNS lookup returned no IPv4", "host", host, "raw", raw)
		return result, ErrNoIPv4
	}

	r.logger.Debug("System DNS lookup successful", "host", host, "ip", result.IP)
	return result, nil
}

// selectIPv4 picks the first strict dotted-quad address out of raw.
// The "ip4" family restriction is asked of the resolver, but the answer is
// still validated: some resolvers hand back IPv4-mapped IPv6 forms.
func selectIPv4(raw []string) *Result {
	result := &Result{Raw: raw}
	for _, addr := range raw {
		if iputil.IsIPv4(addr) {
			result.IP = addr
			break
		}
	}
	return result
}
