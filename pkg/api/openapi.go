package api

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed ui/docs.html
var docsFS embed.FS

var docsTemplate = template.Must(template.ParseFS(docsFS, "ui/docs.html"))

// handleOpenAPI handles GET /openapi.json
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.openAPIDocument())
}

// handleDocs handles GET /docs
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := struct {
		Version  string
		Hostname string
	}{
		Version:  s.version,
		Hostname: s.hostname,
	}

	if err := docsTemplate.Execute(w, data); err != nil {
		s.logger.Error("Failed to render docs page", "error", err)
	}
}

// openAPIDocument builds the OpenAPI 3.0 description of the service.
// Built per request from the live configuration so the hostname in the
// description matches what /aws-public-ip actually resolves.
func (s *Server) openAPIDocument() map[string]any {
	jsonContent := func(schema map[string]any) map[string]any {
		return map[string]any{
			"application/json": map[string]any{"schema": schema},
		}
	}

	publicIPSuccess := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ok":       map[string]any{"type": "boolean"},
			"method":   map[string]any{"type": "string", "enum": []string{"dns-lookup"}},
			"ip":       map[string]any{"type": "string", "format": "ipv4"},
			"hostname": map[string]any{"type": "string"},
		},
		"required": []string{"ok", "method", "ip", "hostname"},
	}

	resolutionError := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ok":      map[string]any{"type": "boolean"},
			"error":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
		},
	}

	invalidFamily := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ok":       map[string]any{"type": "boolean"},
			"error":    map[string]any{"type": "string"},
			"hostname": map[string]any{"type": "string"},
			"raw": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}

	clientIP := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ok":           map[string]any{"type": "boolean"},
			"callerIp":     map[string]any{"type": "string"},
			"forwardedFor": map[string]any{"type": "string", "nullable": true},
			"userAgent":    map[string]any{"type": "string", "nullable": true},
			"requestId":    map[string]any{"type": "string", "format": "uuid"},
		},
		"required": []string{"ok", "callerIp", "requestId"},
	}

	health := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":  map[string]any{"type": "string"},
			"uptime":  map[string]any{"type": "string"},
			"version": map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "ip-witness",
			"description": "Resolves the public IPv4 address of a configured hostname and echoes the caller's apparent IP address.",
			"version":     s.version,
		},
		"paths": map[string]any{
			"/aws-public-ip": map[string]any{
				"get": map[string]any{
					"summary":     "Resolve the configured hostname's IPv4 address",
					"description": "Performs a single A-record lookup of " + s.hostname + " and returns the first IPv4 address.",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Resolution succeeded",
							"content":     jsonContent(publicIPSuccess),
						},
						"500": map[string]any{
							"description": "DNS lookup failed",
							"content":     jsonContent(resolutionError),
						},
						"502": map[string]any{
							"description": "Lookup succeeded but yielded no IPv4 address",
							"content":     jsonContent(invalidFamily),
						},
					},
				},
			},
			"/client-ip": map[string]any{
				"get": map[string]any{
					"summary":     "Report the caller's apparent IP address",
					"description": "Uses the first X-Forwarded-For entry when a reverse proxy hop is trusted, falling back to the transport peer address.",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Caller information",
							"content":     jsonContent(clientIP),
						},
					},
				},
			},
			"/api/health": map[string]any{
				"get": map[string]any{
					"summary": "Service health",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Health status",
							"content":     jsonContent(health),
						},
					},
				},
			},
		},
	}
}
