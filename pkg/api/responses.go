package api

// PublicIPResponse is the success body of GET /aws-public-ip
type PublicIPResponse struct {
	OK       bool   `json:"ok"`
	Method   string `json:"method"`
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
}

// ResolutionErrorResponse is the 500 body of GET /aws-public-ip: the DNS
// lookup itself failed (NXDOMAIN, timeout, network error)
type ResolutionErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// InvalidAddressResponse is the 502 body of GET /aws-public-ip: the lookup
// succeeded but yielded no IPv4 address. Raw carries the resolver output
// verbatim for diagnosis.
type InvalidAddressResponse struct {
	OK       bool     `json:"ok"`
	Error    string   `json:"error"`
	Hostname string   `json:"hostname"`
	Raw      []string `json:"raw"`
}

// ClientIPResponse is the body of GET /client-ip. ForwardedFor and
// UserAgent are null when the respective header is absent.
type ClientIPResponse struct {
	OK           bool    `json:"ok"`
	CallerIP     string  `json:"callerIp"`
	ForwardedFor *string `json:"forwardedFor"`
	UserAgent    *string `json:"userAgent"`
	RequestID    string  `json:"requestId"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivenessResponse represents the liveness probe response
type LivenessResponse struct {
	Status string `json:"status"` // "alive"
}

// ReadinessResponse represents the readiness probe response
type ReadinessResponse struct {
	Status string            `json:"status"` // "ready" or "not_ready"
	Checks map[string]string `json:"checks"` // Component health status
}

// SystemResponse represents process-level diagnostics
type SystemResponse struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemUsed    uint64  `json:"mem_used"`
	MemTotal   uint64  `json:"mem_total"`
	MemPercent float64 `json:"mem_percent"`
	Goroutines int     `json:"goroutines"`
	Uptime     string  `json:"uptime"`
}

// ErrorResponse represents a generic API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// optionalHeader maps an absent header to JSON null
func optionalHeader(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
