package services

import (
	"math"
	"time"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

// WeightedMovingAverage forecasts the next value from the most recent samples.
// Weights are applied oldest first and truncated to the number of samples
// available. Below the minimum sample count the last value is returned as is.
func (e *PredictiveEngine) WeightedMovingAverage(series models.Series) float64 {
	last, ok := series.Last()
	if !ok {
		return 0
	}
	if len(series) < e.policy.WMAMinPoints {
		return last.Value
	}

	weights := e.policy.WMAWeights
	window := min(len(weights), len(series))
	recent := series[len(series)-window:]

	var weightedSum, weightTotal float64
	for i, p := range recent {
		weightedSum += p.Value * weights[i]
		weightTotal += weights[i]
	}
	if weightTotal == 0 {
		return last.Value
	}
	return weightedSum / weightTotal
}

// RegressionLine is a fitted y = slope*x + intercept over calendar days.
type RegressionLine struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line.
func (l RegressionLine) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// regressionFit carries the statistics needed for prediction intervals.
type regressionFit struct {
	RegressionLine
	RSquared float64
	n        int
	meanX    float64
	ssXX     float64
	mse      float64
	lastX    float64
}

// fitLinearRegression performs ordinary least squares. With a single distinct x
// the slope is zero and the intercept is the mean of y. A constant y has R² = 1.
func fitLinearRegression(xs, ys []float64) regressionFit {
	n := len(xs)
	fit := regressionFit{n: n}
	if n == 0 || len(ys) != n {
		return fit
	}

	meanX := calculateMeanFloat64(xs)
	meanY := calculateMeanFloat64(ys)

	var ssXY, ssXX float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		ssXY += dx * (ys[i] - meanY)
		ssXX += dx * dx
	}

	if ssXX == 0 {
		fit.Slope = 0
		fit.Intercept = meanY
	} else {
		fit.Slope = ssXY / ssXX
		fit.Intercept = meanY - fit.Slope*meanX
	}

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		residual := ys[i] - fit.At(xs[i])
		ssRes += residual * residual
		dy := ys[i] - meanY
		ssTot += dy * dy
	}

	fit.RSquared = 1
	if ssTot != 0 {
		fit.RSquared = 1 - ssRes/ssTot
	}
	fit.meanX = meanX
	fit.ssXX = ssXX
	fit.mse = ssRes / float64(n)
	fit.lastX = xs[n-1]
	return fit
}

// standardError of a new observation at x.
func (f regressionFit) standardError(x float64) float64 {
	if f.n == 0 {
		return 0
	}
	factor := 1 + 1/float64(f.n)
	if f.ssXX > 0 {
		dx := x - f.meanX
		factor += dx * dx / f.ssXX
	}
	return math.Sqrt(f.mse * factor)
}

// FitAndForecast fits a least-squares line over (days since first sample, value)
// and predicts each horizon ahead of the last sample, with a confidence interval
// of CriticalValue standard errors. Values and bounds are clamped to the score range.
//
// The critical value is applied regardless of sample size, which is only accurate
// for large samples; for short histories the interval is narrower than a
// Student-t interval would be.
func (e *PredictiveEngine) FitAndForecast(series models.Series, horizons []int) (*models.RegressionForecast, error) {
	if len(series) < e.policy.RegressionMinPoints {
		return nil, &InsufficientDataError{
			Stage:    "regression forecast",
			Required: e.policy.RegressionMinPoints,
			Got:      len(series),
		}
	}
	if len(horizons) == 0 {
		horizons = e.policy.DefaultHorizons
	}

	timestamps := make([]time.Time, len(series))
	for i, p := range series {
		timestamps[i] = p.Timestamp
	}
	xs := calendarDaysSince(timestamps)
	fit := fitLinearRegression(xs, series.Values())

	t := e.policy.CriticalValue
	origin := truncateToDay(timestamps[0])
	predictions := make([]models.Prediction, 0, len(horizons))
	for _, h := range horizons {
		x := fit.lastX + float64(h)
		raw := fit.At(x)
		margin := t * fit.standardError(x)
		predictions = append(predictions, models.Prediction{
			HorizonDays: h,
			Date:        origin.AddDate(0, 0, int(x)),
			Value:       e.clampScore(raw),
			LowerBound:  e.clampScore(raw - margin),
			UpperBound:  e.clampScore(raw + margin),
		})
	}

	anomalies := e.detectAnomalies(xs, series, fit.RegressionLine)

	return &models.RegressionForecast{
		Slope:         fit.Slope,
		Intercept:     fit.Intercept,
		RSquared:      fit.RSquared,
		Predictions:   predictions,
		AnomalyCount:  anomalies.Count,
		SampleSize:    len(series),
		CriticalValue: t,
	}, nil
}

func (e *PredictiveEngine) clampScore(value float64) float64 {
	return clamp(value, e.policy.ScoreMin, e.policy.ScoreMax)
}
