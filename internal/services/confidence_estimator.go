package services

import (
	"github.com/joseteiadirector/teia-geo/internal/models"
)

// EstimateConfidence converts volatility into a forecast confidence. Short series
// get the floor without computation; otherwise confidence falls linearly with the
// standard deviation and is clamped to [floor, ceiling].
func (e *PredictiveEngine) EstimateConfidence(series models.Series) float64 {
	if len(series) < e.policy.ConfidenceMinPoints {
		return e.policy.ConfidenceFloor
	}
	stdDev := calculatePopulationStdDev(series.Values())
	return clamp(1-stdDev/e.policy.ConfidenceScale, e.policy.ConfidenceFloor, e.policy.ConfidenceCeiling)
}
