// Package server runs the HTTP API: a Gin engine mounted on a ServeMux and
// served over HTTP/1.1 and h2c.
//
// Every request passes through the server-wide middleware in
// server/middleware (recovery, request id, request logging, CORS, body size
// limit). Routes under /api may additionally be rate limited per client.
//
// RegisterDefaultEndpoints adds the probes and metadata routes from
// server/endpoint: /health, /readyz, /livez, /version and /info.
package server
