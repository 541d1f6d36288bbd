// Package services holds the application logic between the HTTP handlers
// and the analysis packages.
//
// AnalysisService owns the upload lifecycle: a workbook is validated,
// parsed and classified once, cached by upload ID and recorded in the
// history store. Every later query (dashboard, subject statistics,
// student lookup, leaderboards, insights, reports and exports) is
// answered from the cached result. The ID "latest" addresses the most
// recent upload.
//
// HealthService backs the liveness and readiness checks.
//
// Services return the sentinel errors in errors.go, wrapped with
// context; the transport layer maps them to API errors.
package services
