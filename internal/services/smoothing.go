package services

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

// SmoothSeries returns the simple moving average of the series for chart
// rendering. Each output point carries the timestamp of the last sample in its
// window. Series shorter than the period produce an empty result.
func (e *PredictiveEngine) SmoothSeries(series models.Series, period int) models.Series {
	if period <= 0 || len(series) < period {
		return models.Series{}
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	result := helper.ChanToSlice(sma.Compute(helper.SliceToChan(series.Values())))

	// Moving average output is tail-aligned with the input.
	offset := len(series) - len(result)
	if offset < 0 {
		return models.Series{}
	}
	smoothed := make(models.Series, len(result))
	for i, v := range result {
		smoothed[i] = models.TimePoint{Timestamp: series[offset+i].Timestamp, Value: v}
	}
	return smoothed
}
