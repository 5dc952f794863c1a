// Package app wires SellerPulse together and manages its lifecycle.
//
// NewApplication loads configuration, initializes logging and telemetry,
// opens the transaction store and builds the services and HTTP router.
// Ingest commits and marketplace deletions invalidate memoized reports.
//
// # Middleware Order
//
//	RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit → Timeout
//
// /metrics is mounted outside the group so scrapes skip logging and rate
// limiting.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then Stop drains in-flight requests
// within the shutdown timeout, closes the store and flushes telemetry.
package app
