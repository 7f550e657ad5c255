package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/joseteiadirector/teia-geo/internal/middleware"
	"github.com/joseteiadirector/teia-geo/internal/models"
	"github.com/joseteiadirector/teia-geo/internal/services"
	"github.com/joseteiadirector/teia-geo/internal/utils"
)

// PredictiveAnalyzer is the service surface used by the analytics endpoints.
type PredictiveAnalyzer interface {
	Analyze(ctx context.Context, req models.AnalyticsRequest) (*models.AnalyticsResponse, error)
	AnalyzeSeries(req models.SeriesAnalysisRequest) (*models.SeriesAnalysis, error)
}

type AnalyticsHandler struct {
	service PredictiveAnalyzer
	logger  *logrus.Logger
}

func NewAnalyticsHandler(service PredictiveAnalyzer, logger *logrus.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// Predictive returns trends, forecasts, anomalies, correlations and insights for a brand.
func (h *AnalyticsHandler) Predictive(c *gin.Context) {
	var req models.AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !middleware.BrandAllowed(c, strings.TrimSpace(req.BrandID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token is not allowed to query this brand"})
		return
	}

	response, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Series analyzes a caller-supplied series without touching storage.
func (h *AnalyticsHandler) Series(c *gin.Context) {
	var req models.SeriesAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	analysis, err := h.service.AnalyzeSeries(req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (h *AnalyticsHandler) writeError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
	case errors.Is(err, services.ErrUpstreamData):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load brand history"})
	default:
		h.logger.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Unhandled analytics error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
