package services

import (
	"math"
	"time"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

// residualEpsilon treats residual spreads below it as an exact fit.
const residualEpsilon = 1e-9

// DetectAnomalies flags points whose residual against the line exceeds
// AnomalySigmaMultiplier standard deviations of all residuals. Points are
// reported, never removed.
func (e *PredictiveEngine) DetectAnomalies(series models.Series, line RegressionLine) models.AnomalyReport {
	timestamps := make([]time.Time, len(series))
	for i, p := range series {
		timestamps[i] = p.Timestamp
	}
	return e.detectAnomalies(calendarDaysSince(timestamps), series, line)
}

func (e *PredictiveEngine) detectAnomalies(xs []float64, series models.Series, line RegressionLine) models.AnomalyReport {
	report := models.AnomalyReport{
		Indices:    []int{},
		Timestamps: []time.Time{},
	}
	if len(series) == 0 {
		return report
	}

	residuals := make([]float64, len(series))
	for i, p := range series {
		residuals[i] = p.Value - line.At(xs[i])
	}

	sigma := calculatePopulationStdDev(residuals)
	report.Threshold = e.policy.AnomalySigmaMultiplier * sigma
	if sigma < residualEpsilon {
		return report
	}

	for i, r := range residuals {
		if math.Abs(r) > report.Threshold {
			report.Indices = append(report.Indices, i)
			report.Timestamps = append(report.Timestamps, series[i].Timestamp)
		}
	}
	report.Count = len(report.Indices)
	return report
}
