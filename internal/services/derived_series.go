package services

import (
	"sort"
	"time"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

// MentionRateSeries buckets mention events per UTC day. Each point is the share
// of observations on that day in which the brand was mentioned, as a percentage.
func MentionRateSeries(events []models.MentionEvent) models.Series {
	type bucket struct {
		total     int
		mentioned int
	}
	buckets := make(map[time.Time]*bucket)
	for _, ev := range events {
		day := truncateToDay(ev.Timestamp)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total++
		if ev.Mentioned {
			b.mentioned++
		}
	}

	series := make(models.Series, 0, len(buckets))
	for day, b := range buckets {
		series = append(series, models.TimePoint{
			Timestamp: day,
			Value:     float64(b.mentioned) / float64(b.total) * 100,
		})
	}
	sortSeries(series)
	return series
}

// SEOPositionSeries returns the daily mean ranking position. Lower is better.
func SEOPositionSeries(rows []models.SEOMetric) models.Series {
	return dailySEOSeries(rows, func(m models.SEOMetric) float64 { return m.AvgPosition })
}

// SEOClickThroughSeries returns the daily mean click-through rate.
func SEOClickThroughSeries(rows []models.SEOMetric) models.Series {
	return dailySEOSeries(rows, func(m models.SEOMetric) float64 { return m.CTR })
}

func dailySEOSeries(rows []models.SEOMetric, pick func(models.SEOMetric) float64) models.Series {
	raw := make(models.Series, len(rows))
	for i, row := range rows {
		raw[i] = models.TimePoint{Timestamp: row.Timestamp, Value: pick(row)}
	}
	means := dailyMeans(raw)

	series := make(models.Series, 0, len(means))
	for day, value := range means {
		series = append(series, models.TimePoint{Timestamp: day, Value: value})
	}
	sortSeries(series)
	return series
}

func sortSeries(series models.Series) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
}

// SummarizeMentions counts mention events and averages their confidence.
func SummarizeMentions(events []models.MentionEvent) models.MentionSummary {
	summary := models.MentionSummary{Total: len(events)}
	if len(events) == 0 {
		return summary
	}
	var confidenceSum float64
	for _, ev := range events {
		if ev.Mentioned {
			summary.Mentioned++
		}
		confidenceSum += ev.Confidence
	}
	summary.MentionRate = float64(summary.Mentioned) / float64(summary.Total) * 100
	summary.AvgConfidence = confidenceSum / float64(summary.Total)
	return summary
}

// SummarizeSEO averages the secondary channel metrics.
func SummarizeSEO(rows []models.SEOMetric) models.SEOSummary {
	summary := models.SEOSummary{Samples: len(rows)}
	if len(rows) == 0 {
		return summary
	}
	var position, ctr, conversion float64
	for _, row := range rows {
		position += row.AvgPosition
		ctr += row.CTR
		conversion += row.ConversionRate
		summary.TotalTraffic += row.OrganicTraffic
	}
	n := float64(len(rows))
	summary.AvgPosition = position / n
	summary.AvgCTR = ctr / n
	summary.AvgConversionRate = conversion / n
	return summary
}
