// Package app wires the contract workspace into a running HTTP server.
//
// NewApplication builds every component from a loaded config.Config:
// the spreadsheet importer, the receipt ledger behind the workspace
// service, the websocket hub that pushes workspace events to dashboards,
// OpenTelemetry providers and the chi router.
//
// # Routing
//
// The websocket endpoint (/ws) and the Prometheus scrape endpoint
// (/metrics) sit outside the main middleware group so their response
// writers are never wrapped. Everything else runs through
//
//	RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders →
//	CORS → RateLimit → Timeout
//
// # Lifecycle
//
// Run listens on the configured address and blocks until the context is
// cancelled or SIGINT/SIGTERM arrives. Shutdown drains in-flight
// requests, disconnects websocket clients and flushes telemetry. Errors
// are returned to the caller; the package never calls os.Exit.
package app
