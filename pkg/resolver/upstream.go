package resolver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"ip-witness/pkg/config"
	"ip-witness/pkg/logging"

	"github.com/miekg/dns"
)

// UpstreamResolver queries configured DNS servers directly for A records,
// bypassing the system resolver. Upstreams are tried in round-robin order
// until one answers or the retry budget is exhausted.
type UpstreamResolver struct {
	upstreams []string
	index     atomic.Uint32
	timeout   time.Duration
	retries   int
	logger    *logging.Logger

	// Connection pool
	clientPool sync.Pool
}

// NewUpstream creates a resolver that queries cfg.Upstreams directly
func NewUpstream(cfg *config.ResolverConfig, logger *logging.Logger) *UpstreamResolver {
	// Normalize upstream addresses (add :53 if port is missing)
	upstreams := make([]string, len(cfg.Upstreams))
	for i, upstream := range cfg.Upstreams {
		if _, _, err := net.SplitHostPort(upstream); err != nil {
			upstreams[i] = net.JoinHostPort(upstream, "53")
		} else {
			upstreams[i] = upstream
		}
	}

	r := &UpstreamResolver{
		upstreams: upstreams,
		timeout:   cfg.Timeout,
		retries:   cfg.Retries,
		logger:    logger,
	}

	r.clientPool.New = func() any {
		return &dns.Client{
			Net:     "udp",
			Timeout: r.timeout,
		}
	}

	logger.Info("Upstream resolver initialized",
		"upstreams", upstreams,
		"timeout", r.timeout,
		"retries", r.retries,
	)

	return r
}

// LookupIPv4 queries upstreams for the host's A records
func (r *UpstreamResolver) LookupIPv4(ctx context.Context, host string) (*Result, error) {
	if len(r.upstreams) == 0 {
		return nil, fmt.Errorf("no upstream DNS servers configured")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	attempts := min(r.retries, len(r.upstreams))
	var lastErr error

	for i := 0; i < attempts; i++ {
		upstream := r.selectUpstream()

		client := r.clientPool.Get().(*dns.Client)

		r.logger.Debug("Querying upstream for A records",
			"host", host,
			"upstream", upstream,
			"attempt", i+1,
		)

		resp, rtt, err := client.ExchangeContext(ctx, msg, upstream)
		r.clientPool.Put(client)
		if err != nil {
			r.logger.Warn("Upstream query failed",
				"upstream", upstream,
				"error", err,
				"attempt", i+1,
			)
			lastErr = err
			continue
		}

		if resp == nil {
			lastErr = fmt.Errorf("received nil response from %s", upstream)
			continue
		}

		if resp.Rcode == dns.RcodeServerFailure {
			r.logger.Warn("Upstream returned SERVFAIL",
				"upstream", upstream,
				"host", host,
			)
			lastErr = fmt.Errorf("upstream %s returned SERVFAIL", upstream)
			continue
		}

		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("lookup of %s failed: %s", host, dns.RcodeToString[resp.Rcode])
		}

		r.logger.Debug("Upstream query succeeded",
			"upstream", upstream,
			"host", host,
			"rtt", rtt,
			"answers", len(resp.Answer),
		)

		result := selectIPv4(answerStrings(resp))
		if result.IP == "" {
			return result, ErrNoIPv4
		}
		return result, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all upstream servers failed: %w", lastErr)
	}
	return nil, fmt.Errorf("all upstream servers failed")
}

// answerStrings flattens the answer section into address strings.
// Non-address records (CNAMEs in the chain) surface by their rdata so the
// raw diagnostic output stays faithful to what the upstream returned.
func answerStrings(resp *dns.Msg) []string {
	raw := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			raw = append(raw, record.A.String())
		case *dns.AAAA:
			raw = append(raw, record.AAAA.String())
		case *dns.CNAME:
			raw = append(raw, record.Target)
		}
	}
	return raw
}

// selectUpstream selects the next upstream server using round-robin
func (r *UpstreamResolver) selectUpstream() string {
	idx := r.index.Add(1) % uint32(len(r.upstreams))
	return r.upstreams[idx]
}

// Upstreams returns the list of configured upstream servers
func (r *UpstreamResolver) Upstreams() []string {
	return r.upstreams
}
