package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ip-witness/pkg/config"
	"ip-witness/pkg/logging"
	"ip-witness/pkg/resolver"
)

// stubResolver implements resolver.Resolver for handler testing
type stubResolver struct {
	result *resolver.Result
	err    error
}

func (s *stubResolver) LookupIPv4(ctx context.Context, host string) (*resolver.Result, error) {
	return s.result, s.err
}

func getTestLogger() *logging.Logger {
	logger, _ := logging.New(&config.LoggingConfig{
		Level:  "error", // Suppress logs during tests
		Format: "text",
		Output: "stdout",
	})
	return logger
}

func newTestServer(res resolver.Resolver) *Server {
	return New(&Config{
		ListenAddress: ":3000",
		Hostname:      "ec2-34-202-126-158.compute-1.amazonaws.com",
		TrustedHops:   1,
		Resolver:      res,
		Logger:        getTestLogger(),
		Version:       "test",
	})
}

// TestHandlePublicIP_Success tests resolution of a valid IPv4 address
func TestHandlePublicIP_Success(t *testing.T) {
	server := newTestServer(&stubResolver{
		result: &resolver.Result{
			IP:  "34.202.126.158",
			Raw: []string{"34.202.126.158"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/aws-public-ip", nil)
	w := httptest.NewRecorder()

	server.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var response PublicIPResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !response.OK {
		t.Error("expected ok true")
	}
	if response.Method != "dns-lookup" {
		t.Errorf("expected method 'dns-lookup', got %s", response.Method)
	}
	if response.IP != "34.202.126.158" {
		t.Errorf("expected ip 34.202.126.158, got %s", response.IP)
	}
	if response.Hostname != "ec2-34-202-126-158.compute-1.amazonaws.com" {
		t.Errorf("unexpected hostname %s", response.Hostname)
	}
}

// TestHandlePublicIP_NoIPv4 tests the bad-gateway path for IPv6-only results
func TestHandlePublicIP_NoIPv4(t *testing.T) {
	server := newTestServer(&stubResolver{
		result: &resolver.Result{Raw: []string{"2001:db8::1"}},
		err:    resolver.ErrNoIPv4,
	})

	req := httptest.NewRequest(http.MethodGet, "/aws-public-ip", nil)
	w := httptest.NewRecorder()

	server.handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", w.Code)
	}

	var response InvalidAddressResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.OK {
		t.Error("expected ok false")
	}
	if response.Error != "invalid-address-family" {
		t.Errorf("unexpected error kind %s", response.Error)
	}
	if len(response.Raw) != 1 || response.Raw[0] != "2001:db8::1" {
		t.Errorf("expected raw resolver output, got %v", response.Raw)
	}
}

// TestHandlePublicIP_LookupError tests the internal-error path
func TestHandlePublicIP_LookupError(t *testing.T) {
	server := newTestServer(&stubResolver{
		err: errors.New("lookup failed: no such host"),
	})

	req := httptest.NewRequest(http.MethodGet, "/aws-public-ip", nil)
	w := httptest.NewRecorder()

	server.handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}

	var response ResolutionErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.OK {
		t.Error("expected ok false")
	}
	if response.Error != "resolution-failed" {
		t.Errorf("unexpected error kind %s", response.Error)
	}
	if response.Message == "" {
		t.Error("expected non-empty message")
	}
}

// TestHandleClientIP_ForwardedFor tests first-hop extraction
func TestHandleClientIP_ForwardedFor(t *testing.T) {
	server := newTestServer(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/client-ip", nil)
	req.RemoteAddr = "10.0.0.1:52114"
	req.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")
	req.Header.Set("User-Agent", "curl/8.0")
	w := httptest.NewRecorder()

	server.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response ClientIPResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.CallerIP != "203.0.113.10" {
		t.Errorf("expected callerIp 203.0.113.10, got %s", response.CallerIP)
	}
	if response.ForwardedFor == nil || *response.ForwardedFor != "203.0.113.10, 10.0.0.1" {
		t.Errorf("unexpected forwardedFor %v", response.ForwardedFor)
	}
	if response.UserAgent == nil || *response.UserAgent != "curl/8.0" {
		t.Errorf("unexpected userAgent %v", response.UserAgent)
	}
	if response.RequestID == "" {
		t.Error("expected non-empty requestId")
	}
}

// TestHandleClientIP_NoHeaders tests the transport-address fallback
func TestHandleClientIP_NoHeaders(t *testing.T) {
	server := newTestServer(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/client-ip", nil)
	req.RemoteAddr = "192.0.2.44:33001"
	w := httptest.NewRecorder()

	server.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response ClientIPResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.CallerIP != "192.0.2.44" {
		t.Errorf("expected callerIp 192.0.2.44, got %s", response.CallerIP)
	}
	if response.ForwardedFor != nil {
		t.Errorf("expected null forwardedFor, got %v", *response.ForwardedFor)
	}
}

// TestHandleHealth tests the health endpoint
func TestHandleHealth(t *testing.T) {
	server := newTestServer(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	server.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
	if response.Version != "test" {
		t.Errorf("expected version 'test', got %s", response.Version)
	}
}

// TestHandleHealthz tests the liveness probe
func TestHandleHealthz(t *testing.T) {
	server := newTestServer(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	server.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response LivenessResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "alive" {
		t.Errorf("expected status 'alive', got %s", response.Status)
	}
}

// TestHandleReadyz tests the readiness probe
func TestHandleReadyz(t *testing.T) {
	server := newTestServer(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	server.handleReadyz(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response ReadinessResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ready" {
		t.Errorf("expected status 'ready', got %s", response.Status)
	}
	if response.Checks["resolver"] != "ok" {
		t.Errorf("expected resolver check 'ok', got %s", response.Checks["resolver"])
	}
}

// TestHandleHealthz_MethodNotAllowed tests that non-GET methods are rejected
func TestHandleHealthz_MethodNotAllowed(t *testing.T) {
	server := newTestServer(&stubResolver{})

	methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}
	for _, method := range methods {
		req := httptest.NewRequest(method, "/healthz", nil)
		w := httptest.NewRecorder()

		server.handleHealthz(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", method, w.Code)
		}
	}
}
