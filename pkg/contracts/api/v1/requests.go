// Package api contains API contract definitions for the procurement analyzer.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"procurement/pkg/contracts/domain"
)

// AnalysisRequest starts an analysis run. An empty type means full.
type AnalysisRequest struct {
	AnalysisType string `json:"analysis_type" validate:"omitempty,oneof=full insourcing outsourcing"`
}

// Mode resolves the requested analysis mode
func (r AnalysisRequest) Mode() domain.AnalysisMode {
	if r.AnalysisType == "" {
		return domain.AnalysisModeFull
	}
	return domain.AnalysisMode(r.AnalysisType)
}

// PartRequest looks up a single part row
type PartRequest struct {
	PartNumber string `json:"part_number" validate:"required,min=1,max=128,partnumber"`
}

// PartResponse carries the raw row of a part
type PartResponse struct {
	Status string            `json:"status"`
	Data   map[string]string `json:"data"`
}

// HealthResponse is returned by the liveness check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ReadinessResponse is returned by the readiness check
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
