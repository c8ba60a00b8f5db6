package api

import (
	"errors"
	"net/http"
	"time"

	"ip-witness/pkg/iputil"
	"ip-witness/pkg/resolver"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Error kinds carried in the "error" field of failure bodies
const (
	errResolutionFailed     = "resolution-failed"
	errInvalidAddressFamily = "invalid-address-family"
)

// handlePublicIP handles GET /aws-public-ip
func (s *Server) handlePublicIP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start := time.Now()
	result, err := s.resolver.LookupIPv4(ctx, s.hostname)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.LookupsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("host", s.hostname),
		))
		s.metrics.LookupDuration.Record(ctx, float64(elapsed.Milliseconds()))
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.LookupFailures.Add(ctx, 1, metric.WithAttributes(
				attribute.String("host", s.hostname),
			))
		}

		// A lookup that answered without an IPv4 address is a bad
		// gateway, not an internal error: the upstream infrastructure
		// produced an unusable result.
		if errors.Is(err, resolver.ErrNoIPv4) {
			var raw []string
			if result != nil {
				raw = result.Raw
			}
			s.logger.Warn("Lookup yielded no IPv4 address",
				"hostname", s.hostname,
				"raw", raw,
			)
			s.writeJSON(w, http.StatusBadGateway, InvalidAddressResponse{
				OK:       false,
				Error:    errInvalidAddressFamily,
				Hostname: s.hostname,
				Raw:      raw,
			})
			return
		}

		s.logger.Error("DNS resolution failed", "hostname", s.hostname, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, ResolutionErrorResponse{
			OK:      false,
			Error:   errResolutionFailed,
			Message: err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, PublicIPResponse{
		OK:       true,
		Method:   "dns-lookup",
		IP:       result.IP,
		Hostname: s.hostname,
	})
}

// handleClientIP handles GET /client-ip. It never fails: absent headers
// degrade to null rather than failing the request.
func (s *Server) handleClientIP(w http.ResponseWriter, r *http.Request) {
	callerIP, forwardedFor := iputil.CallerAddr(r, s.trustedHops)

	s.writeJSON(w, http.StatusOK, ClientIPResponse{
		OK:           true,
		CallerIP:     callerIP,
		ForwardedFor: optionalHeader(forwardedFor),
		UserAgent:    optionalHeader(r.Header.Get("User-Agent")),
		RequestID:    requestIDFromContext(r.Context()),
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  s.getUptime(),
		Version: s.version,
	})
}

// handleHealthz handles GET /healthz (Kubernetes liveness probe)
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// handleReadyz handles GET /readyz (Kubernetes readiness probe)
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	checks := make(map[string]string)
	if s.resolver != nil {
		checks["resolver"] = "ok"
	} else {
		checks["resolver"] = "not_configured"
	}

	status := "ready"
	if s.resolver == nil {
		status = "not_ready"
	}

	code := http.StatusOK
	if status != "ready" {
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, ReadinessResponse{
		Status: status,
		Checks: checks,
	})
}
