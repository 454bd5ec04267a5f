// Package http provides the gin handlers of the docbridge REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/discover, /services/execute
//   - Picker: /picker/result (HTTP fallback for hosts without a WebSocket)
//   - Metrics: /metrics/json
//
// Tool failures are returned with status 200 and success=false; the status code
// only reflects transport problems such as a malformed request or an unknown service.
package http
