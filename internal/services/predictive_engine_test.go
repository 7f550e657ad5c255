package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseteiadirector/teia-geo/internal/config"
	"github.com/joseteiadirector/teia-geo/internal/models"
)

var seriesStart = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// dailySeries builds a series with one sample per day starting at seriesStart.
func dailySeries(values ...float64) models.Series {
	series := make(models.Series, len(values))
	for i, v := range values {
		series[i] = models.TimePoint{Timestamp: seriesStart.AddDate(0, 0, i), Value: v}
	}
	return series
}

func linearValues(n int, slope, intercept float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = slope*float64(i) + intercept
	}
	return values
}

func newTestEngine() *PredictiveEngine {
	return NewPredictiveEngine(config.DefaultAnalyticsConfig())
}

func TestNewPredictiveEngine_FillsDefaults(t *testing.T) {
	engine := NewPredictiveEngine(config.AnalyticsConfig{})
	policy := engine.Policy()

	assert.Equal(t, 7, policy.TrendWindow)
	assert.Equal(t, 5.0, policy.TrendThresholdPercent)
	assert.Len(t, policy.WMAWeights, 7)
	assert.Equal(t, 7, policy.RegressionMinPoints)
	assert.Equal(t, 1.96, policy.CriticalValue)
	assert.Equal(t, 100.0, policy.ScoreMax)
	assert.Equal(t, []int{7, 14, 30}, policy.DefaultHorizons)
	assert.Equal(t, 0.3, policy.ConfidenceFloor)
	assert.Equal(t, 0.95, policy.ConfidenceCeiling)
	assert.Equal(t, 0.8, policy.CorrelationPositive)
	assert.Equal(t, -0.3, policy.CorrelationNegative)
	assert.Equal(t, 90, policy.DefaultLookbackDays)
	assert.Equal(t, 365, policy.MaxLookbackDays)
}

func TestAnalyzeTrend(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name      string
		values    []float64
		direction models.TrendDirection
		change    float64
	}{
		{"empty", nil, models.TrendStable, 0},
		{"single point", []float64{42}, models.TrendStable, 0},
		{"only recent window", []float64{10, 20, 30, 40, 50, 60, 70}, models.TrendStable, 0},
		{
			name:      "recent 80 vs prior 70",
			values:    []float64{70, 70, 70, 70, 70, 70, 70, 80, 80, 80, 80, 80, 80, 80},
			direction: models.TrendRising,
			change:    14.2857,
		},
		{
			name:      "falling",
			values:    []float64{80, 80, 80, 80, 80, 80, 80, 60, 60, 60, 60, 60, 60, 60},
			direction: models.TrendFalling,
			change:    -25,
		},
		{
			name:      "within threshold",
			values:    []float64{50, 50, 50, 50, 50, 50, 50, 52, 52, 52, 52, 52, 52, 52},
			direction: models.TrendStable,
			change:    4,
		},
		{
			name:      "partial prior window",
			values:    []float64{40, 40, 50, 50, 50, 50, 50, 50, 50},
			direction: models.TrendRising,
			change:    25,
		},
		{
			name:      "zero prior average",
			values:    []float64{0, 0, 0, 0, 0, 0, 0, 10, 10, 10, 10, 10, 10, 10},
			direction: models.TrendStable,
			change:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.AnalyzeTrend(dailySeries(tt.values...))
			assert.Equal(t, tt.direction, result.Direction)
			assert.InDelta(t, tt.change, result.PercentChange, 0.001)
			assert.Equal(t, len(tt.values), result.SampleSize)
		})
	}
}

func TestAnalyzeTrend_Deterministic(t *testing.T) {
	engine := newTestEngine()
	series := dailySeries(12, 15, 11, 19, 22, 25, 21, 30, 28, 35, 33, 40, 38, 45, 41)

	assert.Equal(t, engine.AnalyzeTrend(series), engine.AnalyzeTrend(series))
}

func TestWeightedMovingAverage(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"one point returns last", []float64{33}, 33},
		{"two points return last", []float64{10, 90}, 90},
		{"three points use first three weights", []float64{10, 20, 30}, 76.0 / 3.6},
		{"constant series", []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, 5},
		{
			name:     "only the last seven samples count",
			values:   []float64{1000, 1000, 10, 10, 10, 10, 10, 10, 10},
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, engine.WeightedMovingAverage(dailySeries(tt.values...)), 1e-9)
		})
	}
}

func TestFitAndForecast_LinearScenario(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.FitAndForecast(dailySeries(50, 52, 54, 56, 58, 60, 62), []int{7})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, forecast.Slope, 1e-9)
	assert.InDelta(t, 50.0, forecast.Intercept, 1e-9)
	assert.InDelta(t, 1.0, forecast.RSquared, 1e-9)
	assert.Equal(t, 0, forecast.AnomalyCount)
	assert.Equal(t, 7, forecast.SampleSize)
	assert.Equal(t, 1.96, forecast.CriticalValue)

	require.Len(t, forecast.Predictions, 1)
	p := forecast.Predictions[0]
	assert.Equal(t, 7, p.HorizonDays)
	assert.InDelta(t, 76.0, p.Value, 1e-9)
	assert.InDelta(t, 76.0, p.LowerBound, 1e-9)
	assert.InDelta(t, 76.0, p.UpperBound, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), p.Date)
}

func TestFitAndForecast_PerfectLineHasNoAnomalies(t *testing.T) {
	engine := newTestEngine()
	series := dailySeries(linearValues(30, 2, 10)...)

	forecast, err := engine.FitAndForecast(series, nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, forecast.RSquared, 1e-9)
	assert.Equal(t, 0, forecast.AnomalyCount)
	assert.Len(t, forecast.Predictions, 3)

	report := engine.DetectAnomalies(series, RegressionLine{Slope: forecast.Slope, Intercept: forecast.Intercept})
	assert.Equal(t, 0, report.Count)
	assert.Empty(t, report.Indices)
}

func TestFitAndForecast_ConstantSeries(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.FitAndForecast(dailySeries(42, 42, 42, 42, 42, 42, 42, 42), []int{7, 14, 30})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, forecast.Slope, 1e-9)
	assert.InDelta(t, 42.0, forecast.Intercept, 1e-9)
	assert.InDelta(t, 1.0, forecast.RSquared, 1e-9)
	for _, p := range forecast.Predictions {
		assert.InDelta(t, 42.0, p.Value, 1e-9)
		assert.InDelta(t, 42.0, p.LowerBound, 1e-9)
		assert.InDelta(t, 42.0, p.UpperBound, 1e-9)
	}
}

func TestFitAndForecast_BoundsOrderedAndClamped(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name   string
		values []float64
	}{
		{"noisy", []float64{40, 47, 43, 52, 49, 58, 51, 60, 55, 63}},
		{"steep rise", []float64{60, 68, 75, 83, 88, 95, 99, 100, 100, 100}},
		{"steep fall", []float64{40, 31, 25, 18, 10, 6, 3, 1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecast, err := engine.FitAndForecast(dailySeries(tt.values...), []int{7, 14, 30, 90})
			require.NoError(t, err)

			for _, p := range forecast.Predictions {
				assert.LessOrEqual(t, p.LowerBound, p.Value)
				assert.LessOrEqual(t, p.Value, p.UpperBound)
				assert.GreaterOrEqual(t, p.LowerBound, 0.0)
				assert.LessOrEqual(t, p.UpperBound, 100.0)
			}
		})
	}
}

func TestFitAndForecast_WidensWithHorizon(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.FitAndForecast(dailySeries(50, 53, 48, 52, 49, 51, 47, 52, 50, 53), []int{1, 30})
	require.NoError(t, err)

	near := forecast.Predictions[0].UpperBound - forecast.Predictions[0].LowerBound
	far := forecast.Predictions[1].UpperBound - forecast.Predictions[1].LowerBound
	assert.Greater(t, far, near)
}

func TestFitAndForecast_InsufficientData(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.FitAndForecast(dailySeries(50, 51, 52), []int{7})

	assert.Nil(t, forecast)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 7, insufficient.Required)
	assert.Equal(t, 3, insufficient.Got)
	assert.Equal(t, "at least 7 days of history required", insufficient.Message())
}

func TestFitAndForecast_SameDaySamples(t *testing.T) {
	engine := newTestEngine()
	series := make(models.Series, 8)
	for i := range series {
		series[i] = models.TimePoint{Timestamp: seriesStart.Add(time.Duration(i) * time.Minute), Value: float64(40 + i)}
	}

	forecast, err := engine.FitAndForecast(series, []int{7})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, forecast.Slope, 1e-9)
	assert.InDelta(t, 43.5, forecast.Intercept, 1e-9)
}

func TestForecasts_TaggedVariants(t *testing.T) {
	engine := newTestEngine()

	t.Run("regression", func(t *testing.T) {
		set, model := engine.Forecasts(dailySeries(linearValues(10, 1, 50)...), []int{7})
		require.NotNil(t, model)
		regression, ok := set.Regression.(models.RegressionForecast)
		require.True(t, ok)
		assert.Equal(t, models.ForecastKindRegression, regression.Kind())
		assert.Equal(t, models.ForecastKindSimple, set.Simple.Kind())
	})

	t.Run("insufficient data", func(t *testing.T) {
		set, model := engine.Forecasts(dailySeries(50, 70), []int{7})
		assert.Nil(t, model)
		insufficient, ok := set.Regression.(models.InsufficientDataForecast)
		require.True(t, ok)
		assert.Equal(t, 7, insufficient.Required)
		assert.Equal(t, 2, insufficient.Got)
		assert.Equal(t, "at least 7 days of history required", insufficient.Message)
		assert.Equal(t, 70.0, set.Simple.PredictedValue)
		assert.Equal(t, 0.3, set.Simple.Confidence)
	})
}

func TestDetectAnomalies(t *testing.T) {
	engine := newTestEngine()
	values := linearValues(10, 1, 0)
	values[5] = 30

	report := engine.DetectAnomalies(dailySeries(values...), RegressionLine{Slope: 1, Intercept: 0})

	assert.Equal(t, 1, report.Count)
	assert.Equal(t, []int{5}, report.Indices)
	assert.Equal(t, []time.Time{seriesStart.AddDate(0, 0, 5)}, report.Timestamps)
	assert.InDelta(t, 15.0, report.Threshold, 1e-9)
}

func TestDetectAnomalies_Empty(t *testing.T) {
	report := newTestEngine().DetectAnomalies(nil, RegressionLine{})

	assert.Equal(t, 0, report.Count)
	assert.NotNil(t, report.Indices)
}

func TestEstimateConfidence(t *testing.T) {
	engine := newTestEngine()

	assert.Equal(t, 0.3, engine.EstimateConfidence(dailySeries(1, 90, 3, 80)))
	assert.Equal(t, 0.95, engine.EstimateConfidence(dailySeries(50, 50, 50, 50, 50)))

	// Alternating samples around 50 have a population deviation equal to the amplitude.
	previous := 1.0
	for _, amplitude := range []float64{0, 5, 10, 20, 40, 80} {
		values := make([]float64, 10)
		for i := range values {
			if i%2 == 0 {
				values[i] = 50 + amplitude
			} else {
				values[i] = 50 - amplitude
			}
		}
		confidence := engine.EstimateConfidence(dailySeries(values...))

		assert.LessOrEqual(t, confidence, previous)
		assert.GreaterOrEqual(t, confidence, 0.3)
		assert.LessOrEqual(t, confidence, 0.95)
		previous = confidence
	}

	assert.InDelta(t, 0.8, engine.EstimateConfidence(dailySeries(60, 40, 60, 40, 60, 40)), 1e-9)
}

func TestCorrelate(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		a        models.Series
		b        models.Series
		inverse  bool
		label    models.CorrelationLabel
		expected float64
	}{
		{
			name:     "improving together with inverse metric",
			a:        dailySeries(50, 55, 60),
			b:        dailySeries(10, 7, 5),
			inverse:  true,
			label:    models.CorrelationPositive,
			expected: 0.8,
		},
		{
			name:     "same raw direction without inverse",
			a:        dailySeries(50, 60),
			b:        dailySeries(10, 20),
			label:    models.CorrelationPositive,
			expected: 0.8,
		},
		{
			name:     "diverging",
			a:        dailySeries(50, 60),
			b:        dailySeries(10, 5),
			label:    models.CorrelationNegative,
			expected: -0.3,
		},
		{
			name:     "both flat agree",
			a:        dailySeries(50, 50),
			b:        dailySeries(4, 4),
			inverse:  true,
			label:    models.CorrelationPositive,
			expected: 0.8,
		},
		{
			name:     "too short",
			a:        dailySeries(50),
			b:        dailySeries(10, 5),
			label:    models.CorrelationInsufficient,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Correlate(tt.a, tt.b, tt.inverse)
			assert.Equal(t, tt.label, result.Label)
			assert.Equal(t, tt.expected, result.Coefficient)
			assert.Equal(t, "directional", result.Method)
		})
	}
}

func TestCorrelate_NetChanges(t *testing.T) {
	result := newTestEngine().Correlate(dailySeries(50, 55, 60), dailySeries(10, 7, 5), true)

	assert.InDelta(t, 10.0, result.NetChangeA, 1e-9)
	assert.InDelta(t, -5.0, result.NetChangeB, 1e-9)
}

func TestCorrelate_Pearson(t *testing.T) {
	engine := newTestEngine()

	result := engine.Correlate(dailySeries(1, 2, 3, 4, 5, 6), dailySeries(10, 9, 8, 7, 6, 5), true)
	require.NotNil(t, result.Pearson)
	assert.InDelta(t, 1.0, *result.Pearson, 1e-9)
	assert.Equal(t, 6, result.PearsonSamples)

	short := engine.Correlate(dailySeries(1, 2, 3), dailySeries(3, 2, 1), true)
	assert.Nil(t, short.Pearson)
}

func TestSmoothSeries(t *testing.T) {
	engine := newTestEngine()

	assert.Empty(t, engine.SmoothSeries(dailySeries(1, 2, 3), 7))

	smoothed := engine.SmoothSeries(dailySeries(1, 2, 3, 4, 5, 6, 7, 8), 7)
	require.Len(t, smoothed, 2)
	assert.InDelta(t, 4.0, smoothed[0].Value, 1e-9)
	assert.InDelta(t, 5.0, smoothed[1].Value, 1e-9)
	assert.Equal(t, seriesStart.AddDate(0, 0, 6), smoothed[0].Timestamp)
	assert.Equal(t, seriesStart.AddDate(0, 0, 7), smoothed[1].Timestamp)
}

func TestAnalyzeSeries(t *testing.T) {
	engine := newTestEngine()

	analysis := engine.AnalyzeSeries(dailySeries(50, 52, 54, 56, 58, 60, 62), []int{7})

	assert.Equal(t, models.TrendStable, analysis.Trend.Direction)
	require.NotNil(t, analysis.Anomalies)
	assert.Equal(t, 0, analysis.Anomalies.Count)
	assert.Len(t, analysis.Smoothed, 1)
	assert.Equal(t, analysis.Forecast.Simple.Confidence, analysis.Confidence)

	short := engine.AnalyzeSeries(dailySeries(50, 52), nil)
	assert.Nil(t, short.Anomalies)
	assert.Equal(t, models.ForecastKindInsufficientData, short.Forecast.Regression.Kind())
}
