package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

func TestMentionRateSeries(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	events := []models.MentionEvent{
		{Timestamp: day2.Add(time.Hour), Provider: "gemini", Mentioned: true, Confidence: 0.7},
		{Timestamp: day1, Provider: "chatgpt", Mentioned: true, Confidence: 0.9},
		{Timestamp: day1.Add(2 * time.Hour), Provider: "claude", Mentioned: false, Confidence: 0.4},
	}

	series := MentionRateSeries(events)

	require.Len(t, series, 2)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), series[0].Timestamp)
	assert.InDelta(t, 50.0, series[0].Value, 1e-9)
	assert.InDelta(t, 100.0, series[1].Value, 1e-9)
	assert.Empty(t, MentionRateSeries(nil))
}

func TestSEOSeries(t *testing.T) {
	day := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	rows := []models.SEOMetric{
		{Timestamp: day, AvgPosition: 4, CTR: 2},
		{Timestamp: day.Add(3 * time.Hour), AvgPosition: 6, CTR: 4},
		{Timestamp: day.AddDate(0, 0, 1), AvgPosition: 3, CTR: 5},
	}

	position := SEOPositionSeries(rows)
	require.Len(t, position, 2)
	assert.InDelta(t, 5.0, position[0].Value, 1e-9)
	assert.InDelta(t, 3.0, position[1].Value, 1e-9)

	ctr := SEOClickThroughSeries(rows)
	require.Len(t, ctr, 2)
	assert.InDelta(t, 3.0, ctr[0].Value, 1e-9)
}

func TestSummaries(t *testing.T) {
	mentions := SummarizeMentions([]models.MentionEvent{
		{Mentioned: true, Confidence: 0.8},
		{Mentioned: false, Confidence: 0.2},
		{Mentioned: true, Confidence: 0.5},
		{Mentioned: true, Confidence: 0.9},
	})
	assert.Equal(t, 4, mentions.Total)
	assert.Equal(t, 3, mentions.Mentioned)
	assert.InDelta(t, 75.0, mentions.MentionRate, 1e-9)
	assert.InDelta(t, 0.6, mentions.AvgConfidence, 1e-9)

	seo := SummarizeSEO([]models.SEOMetric{
		{AvgPosition: 4, CTR: 2, ConversionRate: 1, OrganicTraffic: 100},
		{AvgPosition: 6, CTR: 4, ConversionRate: 3, OrganicTraffic: 300},
	})
	assert.Equal(t, 2, seo.Samples)
	assert.InDelta(t, 5.0, seo.AvgPosition, 1e-9)
	assert.InDelta(t, 3.0, seo.AvgCTR, 1e-9)
	assert.InDelta(t, 2.0, seo.AvgConversionRate, 1e-9)
	assert.Equal(t, int64(400), seo.TotalTraffic)

	assert.Equal(t, models.MentionSummary{}, SummarizeMentions(nil))
	assert.Equal(t, models.SEOSummary{}, SummarizeSEO(nil))
}
