// Package app wires GradeGraph together and runs the HTTP server.
//
// New builds, in order: directories, OpenTelemetry providers and business
// metrics, the upload history store (SQLite or PostgreSQL, or a no-op when
// disabled), the upload cache, the analysis and health services, and the
// chi router with its middleware chain
//
//	RequestID → RealIP → OTel → Logger → Recoverer → Timeout →
//	SecurityHeaders → CORS → RateLimit
//
// Run serves until SIGINT or SIGTERM and then shuts the server, the cache
// and the store down. Initialization errors are returned to the caller;
// the package never exits the process itself.
package app
