package models

import "time"

// TimePoint is a single observation of a metric.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is an ordered sequence of observations for one metric, oldest first.
type Series []TimePoint

// Values returns the raw values of the series in order.
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recent point and false when the series is empty.
func (s Series) Last() (TimePoint, bool) {
	if len(s) == 0 {
		return TimePoint{}, false
	}
	return s[len(s)-1], true
}

// MentionEvent is one generative-AI observation of whether a brand was mentioned.
type MentionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Provider   string    `json:"provider"`
	Mentioned  bool      `json:"mentioned"`
	Confidence float64   `json:"confidence"`
}

// SEOMetric is one row of traditional search-channel metrics.
type SEOMetric struct {
	Timestamp      time.Time `json:"timestamp"`
	AvgPosition    float64   `json:"avg_position"`
	CTR            float64   `json:"ctr"`
	ConversionRate float64   `json:"conversion_rate"`
	OrganicTraffic int64     `json:"organic_traffic"`
}

// SeriesBundle holds the three series loaded for one analytics request.
type SeriesBundle struct {
	BrandID   string         `json:"brand_id"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Primary   Series         `json:"primary"`
	Mentions  []MentionEvent `json:"mentions"`
	Secondary []SEOMetric    `json:"secondary"`
}
