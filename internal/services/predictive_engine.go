package services

import (
	"errors"
	"time"

	"github.com/joseteiadirector/teia-geo/internal/config"
	"github.com/joseteiadirector/teia-geo/internal/models"
)

// PredictiveEngine implements the numeric stages of the trend engine: trend
// classification, forecasting, anomaly detection, confidence and correlation.
// It holds only its calibration and is safe for concurrent use.
type PredictiveEngine struct {
	policy config.AnalyticsConfig
}

// NewPredictiveEngine creates an engine, filling unset policy values with defaults.
func NewPredictiveEngine(policy config.AnalyticsConfig) *PredictiveEngine {
	defaults := config.DefaultAnalyticsConfig()

	if policy.TrendWindow <= 0 {
		policy.TrendWindow = defaults.TrendWindow
	}
	if policy.TrendThresholdPercent <= 0 {
		policy.TrendThresholdPercent = defaults.TrendThresholdPercent
	}
	if len(policy.WMAWeights) == 0 {
		policy.WMAWeights = defaults.WMAWeights
	}
	if policy.WMAMinPoints <= 0 {
		policy.WMAMinPoints = defaults.WMAMinPoints
	}
	if policy.RegressionMinPoints <= 0 {
		policy.RegressionMinPoints = defaults.RegressionMinPoints
	}
	if policy.CriticalValue <= 0 {
		policy.CriticalValue = defaults.CriticalValue
	}
	if policy.ScoreMin >= policy.ScoreMax {
		policy.ScoreMin = defaults.ScoreMin
		policy.ScoreMax = defaults.ScoreMax
	}
	if len(policy.DefaultHorizons) == 0 {
		policy.DefaultHorizons = defaults.DefaultHorizons
	}
	if policy.AnomalySigmaMultiplier <= 0 {
		policy.AnomalySigmaMultiplier = defaults.AnomalySigmaMultiplier
	}
	if policy.ConfidenceMinPoints <= 0 {
		policy.ConfidenceMinPoints = defaults.ConfidenceMinPoints
	}
	if policy.ConfidenceFloor <= 0 && policy.ConfidenceCeiling <= 0 {
		policy.ConfidenceFloor = defaults.ConfidenceFloor
		policy.ConfidenceCeiling = defaults.ConfidenceCeiling
	}
	if policy.ConfidenceScale <= 0 {
		policy.ConfidenceScale = defaults.ConfidenceScale
	}
	if policy.CorrelationPositive == 0 && policy.CorrelationNegative == 0 {
		policy.CorrelationPositive = defaults.CorrelationPositive
		policy.CorrelationNegative = defaults.CorrelationNegative
	}
	if policy.PearsonMinPoints <= 0 {
		policy.PearsonMinPoints = defaults.PearsonMinPoints
	}
	if policy.SmoothingPeriod <= 0 {
		policy.SmoothingPeriod = defaults.SmoothingPeriod
	}
	if policy.MaxHorizonDays <= 0 {
		policy.MaxHorizonDays = defaults.MaxHorizonDays
	}
	if policy.MaxHorizons <= 0 {
		policy.MaxHorizons = defaults.MaxHorizons
	}
	if policy.MinLookbackDays <= 0 {
		policy.MinLookbackDays = defaults.MinLookbackDays
	}
	if policy.MaxLookbackDays < policy.MinLookbackDays {
		policy.MaxLookbackDays = defaults.MaxLookbackDays
	}
	if policy.DefaultLookbackDays < policy.MinLookbackDays || policy.DefaultLookbackDays > policy.MaxLookbackDays {
		policy.DefaultLookbackDays = defaults.DefaultLookbackDays
	}

	return &PredictiveEngine{policy: policy}
}

// Policy returns the effective calibration.
func (e *PredictiveEngine) Policy() config.AnalyticsConfig {
	return e.policy
}

// Forecasts runs both forecaster variants. A short history yields an
// InsufficientDataForecast in place of the regression model; the returned
// model is nil in that case.
func (e *PredictiveEngine) Forecasts(series models.Series, horizons []int) (models.ForecastSet, *models.RegressionForecast) {
	set := models.ForecastSet{
		Simple: models.SimpleForecast{
			PredictedValue: e.WeightedMovingAverage(series),
			Confidence:     e.EstimateConfidence(series),
		},
	}

	regression, err := e.FitAndForecast(series, horizons)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			set.Regression = models.InsufficientDataForecast{
				Required: insufficient.Required,
				Got:      insufficient.Got,
				Message:  insufficient.Message(),
			}
		}
		return set, nil
	}

	set.Regression = *regression
	return set, regression
}

// AnalyzeSeries runs every numeric stage over a single series. It performs no I/O.
func (e *PredictiveEngine) AnalyzeSeries(series models.Series, horizons []int) *models.SeriesAnalysis {
	forecasts, regression := e.Forecasts(series, horizons)

	analysis := &models.SeriesAnalysis{
		Trend:       e.AnalyzeTrend(series),
		Forecast:    forecasts,
		Confidence:  forecasts.Simple.Confidence,
		Smoothed:    e.SmoothSeries(series, e.policy.SmoothingPeriod),
		GeneratedAt: time.Now().UTC(),
	}
	if regression != nil {
		report := e.DetectAnomalies(series, RegressionLine{Slope: regression.Slope, Intercept: regression.Intercept})
		analysis.Anomalies = &report
	}
	return analysis
}
