package services

import (
	apierrors "procurement/internal/errors"
)

// Service errors. Returned errors are copies carrying their own cause and
// context; match them with errors.Is.
var (
	ErrSourceUnavailable = apierrors.NewSourceError("row source unavailable", nil)
	ErrNoData            = apierrors.NewAppError(apierrors.ErrTypeNotFound, "no data found in row source", nil)
	ErrPartNotFound      = apierrors.NewNotFoundError("part")
	ErrInvalidMode       = apierrors.NewAppValidationError("invalid analysis mode")

	// ErrAnalysisConfiguration carries the failed AnalysisResult under the
	// "result" context key.
	ErrAnalysisConfiguration = apierrors.NewConfigError("analysis configuration failed", nil)
)
