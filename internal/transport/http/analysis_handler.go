package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "procurement/internal/errors"
	"procurement/internal/middleware"
	api "procurement/pkg/contracts/api/v1"
	"procurement/pkg/contracts/domain"
)

var analysisModes = []string{
	string(domain.AnalysisModeFull),
	string(domain.AnalysisModeInsourcing),
	string(domain.AnalysisModeOutsourcing),
}

// AnalysisHandler handles procurement analysis requests with RFC 7807 errors
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &AnalysisHandler{
		service:      service,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes mounts the analysis endpoints
func (h *AnalysisHandler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeValidator("application/json"))
		r.Use(h.validator.ValidateRequest)

		r.Post("/procurement-analysis", h.RunAnalysis)
		r.Post("/benchmark1", h.LookupPart)
	})
	r.Get("/parts/{partNumber}", h.GetPart)
	r.Get("/columns", h.DescribeColumns)
}

// RunAnalysis handles POST /api/procurement-analysis. The mode comes from
// the body's analysis_type, then the mode query parameter, then full.
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	queryMode, ok := h.query.ValidateEnum(w, r, "mode", analysisModes, "")
	if !ok {
		return
	}

	var req api.AnalysisRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if req.AnalysisType == "" {
		req.AnalysisType = queryMode
	}
	mode := req.Mode()

	h.logger.InfoContext(r.Context(), "analysis requested",
		slog.String("mode", string(mode)),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	// A configuration failure comes back as a CONFIG AppError carrying the
	// failed result; the error handler renders it as a 422 problem.
	result, err := h.service.RunAnalysis(r.Context(), mode)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// LookupPart handles POST /api/benchmark1
func (h *AnalysisHandler) LookupPart(w http.ResponseWriter, r *http.Request) {
	var req api.PartRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondPart(w, r, req.PartNumber)
}

// GetPart handles GET /api/parts/{partNumber}
func (h *AnalysisHandler) GetPart(w http.ResponseWriter, r *http.Request) {
	req := api.PartRequest{PartNumber: chi.URLParam(r, "partNumber")}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respondPart(w, r, req.PartNumber)
}

func (h *AnalysisHandler) respondPart(w http.ResponseWriter, r *http.Request, partNumber string) {
	row, err := h.service.GetPart(r.Context(), partNumber)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.PartResponse{Status: "found", Data: row})
}

// DescribeColumns handles GET /api/columns
func (h *AnalysisHandler) DescribeColumns(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.DescribeColumns(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, report)
}
