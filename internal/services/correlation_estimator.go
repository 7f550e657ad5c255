package services

import (
	"sort"
	"time"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

const correlationMethodDirectional = "directional"

// Correlate reports whether two metrics moved in the same real-world direction
// over the window. Only the signs of the net changes (last - first) are compared;
// the coefficient is one of two calibrated constants. When inverseB is set, a
// decrease in B counts as an improvement (e.g. ranking position).
//
// When enough days align, the Pearson coefficient of the daily means is attached
// as a supplementary figure. It does not change the directional coefficient.
func (e *PredictiveEngine) Correlate(a, b models.Series, inverseB bool) models.CorrelationResult {
	result := models.CorrelationResult{Method: correlationMethodDirectional}
	if len(a) < 2 || len(b) < 2 {
		result.Label = models.CorrelationInsufficient
		return result
	}

	result.NetChangeA = a[len(a)-1].Value - a[0].Value
	result.NetChangeB = b[len(b)-1].Value - b[0].Value

	directionB := result.NetChangeB
	if inverseB {
		directionB = -directionB
	}

	if sign(result.NetChangeA) == sign(directionB) {
		result.Coefficient = e.policy.CorrelationPositive
		result.Label = models.CorrelationPositive
	} else {
		result.Coefficient = e.policy.CorrelationNegative
		result.Label = models.CorrelationNegative
	}

	xs, ys := alignDaily(a, b)
	if len(xs) >= e.policy.PearsonMinPoints {
		if inverseB {
			for i := range ys {
				ys[i] = -ys[i]
			}
		}
		pearson := calculateCorrelation(xs, ys)
		result.Pearson = &pearson
		result.PearsonSamples = len(xs)
	}

	return result
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// alignDaily averages both series per UTC day and returns the values of the days
// present in both, in chronological order.
func alignDaily(a, b models.Series) ([]float64, []float64) {
	dailyA := dailyMeans(a)
	dailyB := dailyMeans(b)

	days := make([]time.Time, 0, len(dailyA))
	for day := range dailyA {
		if _, ok := dailyB[day]; ok {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	xs := make([]float64, len(days))
	ys := make([]float64, len(days))
	for i, day := range days {
		xs[i] = dailyA[day]
		ys[i] = dailyB[day]
	}
	return xs, ys
}

func dailyMeans(series models.Series) map[time.Time]float64 {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, p := range series {
		day := truncateToDay(p.Timestamp)
		sums[day] += p.Value
		counts[day]++
	}
	means := make(map[time.Time]float64, len(sums))
	for day, sum := range sums {
		means[day] = sum / float64(counts[day])
	}
	return means
}
