package models

import (
	"encoding/json"
	"time"
)

// TrendDirection is the coarse classification of recent movement.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// TrendResult describes the recent direction of a series.
type TrendResult struct {
	Direction     TrendDirection `json:"direction"`
	PercentChange float64        `json:"percent_change"`
	RecentAverage float64        `json:"recent_average"`
	PriorAverage  float64        `json:"prior_average"`
	SampleSize    int            `json:"sample_size"`
}

// TrendSet groups the trends computed for each input series.
type TrendSet struct {
	Primary   TrendResult `json:"primary"`
	Mentions  TrendResult `json:"mentions"`
	Secondary TrendResult `json:"secondary"`
}

// ForecastKind tags the concrete shape of a Forecast.
type ForecastKind string

const (
	ForecastKindSimple           ForecastKind = "simple"
	ForecastKindRegression       ForecastKind = "regression"
	ForecastKindInsufficientData ForecastKind = "insufficient_data"
)

// Forecast is implemented by SimpleForecast, RegressionForecast and InsufficientDataForecast.
// Callers switch on the concrete type.
type Forecast interface {
	Kind() ForecastKind
}

// SimpleForecast is the weighted-moving-average point estimate for the next period.
type SimpleForecast struct {
	PredictedValue float64 `json:"predicted_value"`
	Confidence     float64 `json:"confidence"`
}

// Kind implements Forecast.
func (SimpleForecast) Kind() ForecastKind { return ForecastKindSimple }

// MarshalJSON adds the kind tag.
func (f SimpleForecast) MarshalJSON() ([]byte, error) {
	type alias SimpleForecast
	return json.Marshal(struct {
		Kind ForecastKind `json:"kind"`
		alias
	}{ForecastKindSimple, alias(f)})
}

// Prediction is the regression estimate for one horizon.
type Prediction struct {
	HorizonDays int       `json:"horizon_days"`
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	LowerBound  float64   `json:"lower_bound"`
	UpperBound  float64   `json:"upper_bound"`
}

// RegressionForecast is the least-squares model with per-horizon confidence intervals.
type RegressionForecast struct {
	Slope         float64      `json:"slope"`
	Intercept     float64      `json:"intercept"`
	RSquared      float64      `json:"r_squared"`
	Predictions   []Prediction `json:"predictions"`
	AnomalyCount  int          `json:"anomaly_count"`
	SampleSize    int          `json:"sample_size"`
	CriticalValue float64      `json:"critical_value"`
}

// Kind implements Forecast.
func (RegressionForecast) Kind() ForecastKind { return ForecastKindRegression }

// MarshalJSON adds the kind tag.
func (f RegressionForecast) MarshalJSON() ([]byte, error) {
	type alias RegressionForecast
	return json.Marshal(struct {
		Kind ForecastKind `json:"kind"`
		alias
	}{ForecastKindRegression, alias(f)})
}

// InsufficientDataForecast is returned instead of a model when history is too short.
type InsufficientDataForecast struct {
	Required int    `json:"required"`
	Got      int    `json:"got"`
	Message  string `json:"message"`
}

// Kind implements Forecast.
func (InsufficientDataForecast) Kind() ForecastKind { return ForecastKindInsufficientData }

// MarshalJSON adds the kind tag.
func (f InsufficientDataForecast) MarshalJSON() ([]byte, error) {
	type alias InsufficientDataForecast
	return json.Marshal(struct {
		Kind ForecastKind `json:"kind"`
		alias
	}{ForecastKindInsufficientData, alias(f)})
}

// ForecastSet carries both forecaster variants. Regression is either a
// RegressionForecast or an InsufficientDataForecast.
type ForecastSet struct {
	Simple     SimpleForecast `json:"simple"`
	Regression Forecast       `json:"regression"`
}

// AnomalyReport lists the points that deviate from the fitted line by more than the threshold.
type AnomalyReport struct {
	Count      int         `json:"count"`
	Indices    []int       `json:"indices"`
	Timestamps []time.Time `json:"timestamps"`
	Threshold  float64     `json:"threshold"`
}

// CorrelationLabel is the human-facing name of a correlation signal.
type CorrelationLabel string

const (
	CorrelationPositive     CorrelationLabel = "positive"
	CorrelationNegative     CorrelationLabel = "negative"
	CorrelationInsufficient CorrelationLabel = "insufficient_data"
)

// CorrelationResult is a directional signal of whether two metrics move together.
// Coefficient is one of two calibrated constants, not a magnitude.
type CorrelationResult struct {
	Coefficient    float64          `json:"coefficient"`
	Label          CorrelationLabel `json:"label"`
	Method         string           `json:"method"`
	NetChangeA     float64          `json:"net_change_a"`
	NetChangeB     float64          `json:"net_change_b"`
	Pearson        *float64         `json:"pearson,omitempty"`
	PearsonSamples int              `json:"pearson_samples,omitempty"`
}

// MentionSummary aggregates the mention event series.
type MentionSummary struct {
	Total         int     `json:"total"`
	Mentioned     int     `json:"mentioned"`
	MentionRate   float64 `json:"mention_rate"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// SEOSummary aggregates the secondary channel rows.
type SEOSummary struct {
	Samples           int     `json:"samples"`
	AvgPosition       float64 `json:"avg_position"`
	AvgCTR            float64 `json:"avg_ctr"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	TotalTraffic      int64   `json:"total_traffic"`
}

// InsightPayload is the structured input handed to the text generator.
type InsightPayload struct {
	BrandID     string            `json:"brand_id"`
	Trend       TrendResult       `json:"trend"`
	Forecast    ForecastSet       `json:"forecast"`
	Correlation CorrelationResult `json:"correlation"`
	Mentions    MentionSummary    `json:"mentions"`
	SEO         SEOSummary        `json:"seo"`
}

// InsightSource records whether insights came from the generator or the placeholder.
type InsightSource string

const (
	InsightSourceGenerator InsightSource = "generator"
	InsightSourceFallback  InsightSource = "fallback"
)

// InsightResult is the normalized written diagnosis.
type InsightResult struct {
	Diagnosis       string        `json:"diagnosis"`
	KeyInsights     []string      `json:"key_insights"`
	Recommendations []string      `json:"recommendations"`
	UrgentAction    *string       `json:"urgent_action"`
	Source          InsightSource `json:"source"`
}

// TimeWindow is the historical range that was analyzed.
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AnalyticsSummary carries the descriptive aggregates shown next to the predictions.
type AnalyticsSummary struct {
	Mentions MentionSummary `json:"mentions"`
	SEO      SEOSummary     `json:"seo"`
}

// AnalyticsRequest asks for the predictive analysis of one brand.
type AnalyticsRequest struct {
	BrandID      string `json:"brand_id" binding:"required"`
	LookbackDays int    `json:"lookback_days"`
	Horizons     []int  `json:"horizons"`
}

// AnalyticsResponse is the full predictive analytics result for one brand.
type AnalyticsResponse struct {
	BrandID      string            `json:"brand_id"`
	Window       TimeWindow        `json:"window"`
	Trends       TrendSet          `json:"trends"`
	Forecast     ForecastSet       `json:"forecast"`
	Anomalies    *AnomalyReport    `json:"anomalies,omitempty"`
	Correlations CorrelationResult `json:"correlations"`
	Insights     InsightResult     `json:"insights"`
	Summary      AnalyticsSummary  `json:"summary"`
	Smoothed     Series            `json:"smoothed"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// SeriesAnalysisRequest asks for the numeric analysis of a caller-supplied series.
type SeriesAnalysisRequest struct {
	Points   Series `json:"points"`
	Horizons []int  `json:"horizons"`
}

// SeriesAnalysis is the numeric-only analysis of one series.
type SeriesAnalysis struct {
	Trend       TrendResult    `json:"trend"`
	Forecast    ForecastSet    `json:"forecast"`
	Anomalies   *AnomalyReport `json:"anomalies,omitempty"`
	Confidence  float64        `json:"confidence"`
	Smoothed    Series         `json:"smoothed"`
	GeneratedAt time.Time      `json:"generated_at"`
}
