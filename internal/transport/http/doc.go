// Package http implements the HTTP handlers of the procurement analyzer.
// Handlers stay thin: they decode and validate the request, call a service
// and render the result. Business rules live in internal/services and
// internal/analysis.
//
// # Endpoints
//
//	POST /api/procurement-analysis   run an analysis (body analysis_type or ?mode)
//	POST /api/benchmark1             look up one part row by part_number
//	GET  /api/parts/{partNumber}     same lookup, path form
//	GET  /api/columns                classified column registry
//	GET  /api/health                 liveness check
//	GET  /api/health/live            liveness with runtime details
//	GET  /api/health/ready           readiness (503 when a check fails)
//	GET  /api/version                build information
//	GET  /metrics                    Prometheus scrape endpoint
//
// # Error Handling
//
// Every failure goes through errors.ErrorHandler and is rendered as RFC 7807
// Problem Details:
//
//	{
//	    "type": "/errors/source/unavailable",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "row source unavailable: sheets: 403 forbidden",
//	    "instance": "/api/procurement-analysis",
//	    "error_code": "SERVICE_UNAVAILABLE",
//	    "trace_id": "..."
//	}
//
// A run that cannot find its target price or index column answers 422 and
// carries the failed analysis result under the "result" member.
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// AnalysisServiceInterface.
package http
