package services

import (
	"github.com/joseteiadirector/teia-geo/internal/models"
)

// AnalyzeTrend compares the mean of the most recent window with the window just
// before it. The prior window takes whatever points precede the recent one, so
// with fewer than two full windows it is partial and the change is computed
// from it. With no prior window (n <= window) the change is zero and the trend
// is stable.
func (e *PredictiveEngine) AnalyzeTrend(series models.Series) models.TrendResult {
	values := series.Values()
	n := len(values)
	window := e.policy.TrendWindow

	if n == 0 {
		return models.TrendResult{Direction: models.TrendStable}
	}

	recentStart := max(0, n-window)
	priorStart := max(0, n-2*window)

	recentAvg := calculateMeanFloat64(values[recentStart:])
	priorAvg := recentAvg
	if prior := values[priorStart:recentStart]; len(prior) > 0 {
		priorAvg = calculateMeanFloat64(prior)
	}

	change := 0.0
	if priorAvg != 0 {
		change = (recentAvg - priorAvg) / priorAvg * 100
	}

	return models.TrendResult{
		Direction:     e.classifyChange(change),
		PercentChange: change,
		RecentAverage: recentAvg,
		PriorAverage:  priorAvg,
		SampleSize:    n,
	}
}

func (e *PredictiveEngine) classifyChange(change float64) models.TrendDirection {
	threshold := e.policy.TrendThresholdPercent
	switch {
	case change > threshold:
		return models.TrendRising
	case change < -threshold:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}
