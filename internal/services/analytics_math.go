package services

import (
	"math"
	"time"
)

func calculateMeanFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculatePopulationStdDev returns the population standard deviation (n denominator).
// Volatility, confidence and anomaly thresholds are calibrated against this form.
func calculatePopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := calculateMeanFloat64(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

func calculateCorrelation(x []float64, y []float64) float64 {
	n := len(x)
	if n == 0 || len(y) != n {
		return 0
	}
	meanX := calculateMeanFloat64(x)
	meanY := calculateMeanFloat64(y)

	var numerator float64
	var denomX float64
	var denomY float64

	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	denom := math.Sqrt(denomX * denomY)
	if denom == 0 {
		return 0
	}

	return clamp(numerator/denom, -1, 1)
}

func clamp(value, lower, upper float64) float64 {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

// calendarDaysSince converts timestamps to whole UTC calendar days elapsed since the
// first one, so samples taken on the same day share an x coordinate.
func calendarDaysSince(timestamps []time.Time) []float64 {
	if len(timestamps) == 0 {
		return nil
	}
	days := make([]float64, len(timestamps))
	base := truncateToDay(timestamps[0])
	for i, ts := range timestamps {
		days[i] = math.Round(truncateToDay(ts).Sub(base).Hours() / 24)
	}
	return days
}

func truncateToDay(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
