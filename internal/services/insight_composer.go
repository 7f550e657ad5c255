package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseteiadirector/teia-geo/internal/config"
	"github.com/joseteiadirector/teia-geo/internal/models"
	"github.com/joseteiadirector/teia-geo/pkg/textgen"
)

const (
	placeholderDiagnosis = "Automated diagnosis is unavailable right now. The numeric analysis below is complete."

	insightSystemPrompt = `You are a brand visibility analyst. You receive computed metrics about how often
AI assistants and search engines surface a brand. Answer in plain text with these sections:
Diagnosis: one or two sentences.
Key insights: up to 3 numbered items.
Recommendations: up to 3 numbered items.
Urgent action: a single line, or "none".`
)

// InsightComposer turns the numeric findings into a written diagnosis through
// the external text generator.
type InsightComposer struct {
	generator   textgen.Generator
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxItems    int
	maxRunes    int
	logger      *logrus.Logger
	title       cases.Caser
}

// NewInsightComposer creates a composer. A nil generator always yields the placeholder.
func NewInsightComposer(generator textgen.Generator, genCfg config.TextGeneratorConfig, policy config.AnalyticsConfig, logger *logrus.Logger) *InsightComposer {
	if logger == nil {
		logger = logrus.New()
	}
	maxItems := policy.MaxInsightItems
	if maxItems <= 0 {
		maxItems = 3
	}
	maxRunes := policy.DiagnosisMaxLength
	if maxRunes <= 0 {
		maxRunes = 200
	}
	temperature := genCfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	maxTokens := genCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}

	return &InsightComposer{
		generator:   generator,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     policy.InsightTimeoutDuration(),
		maxItems:    maxItems,
		maxRunes:    maxRunes,
		logger:      logger,
		title:       cases.Title(language.English),
	}
}

// BuildPayload assembles the structured input for the generator.
func BuildPayload(brandID string, trend models.TrendResult, forecast models.ForecastSet, correlation models.CorrelationResult, mentions models.MentionSummary, seo models.SEOSummary) models.InsightPayload {
	return models.InsightPayload{
		BrandID:     brandID,
		Trend:       trend,
		Forecast:    forecast,
		Correlation: correlation,
		Mentions:    mentions,
		SEO:         seo,
	}
}

// Compose asks the generator for a diagnosis and parses it. Any generator
// failure, including a timeout, yields the placeholder result.
func (c *InsightComposer) Compose(ctx context.Context, payload models.InsightPayload) models.InsightResult {
	if c.generator == nil {
		return PlaceholderInsight()
	}

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.generator.Generate(genCtx, textgen.Request{
		SystemPrompt: insightSystemPrompt,
		UserPrompt:   c.BuildPrompt(payload),
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"brand_id": payload.BrandID,
			"error":    err.Error(),
		}).Warn("Text generator failed, using placeholder insights")
		return PlaceholderInsight()
	}

	result := ParseInsightText(text, c.maxItems, c.maxRunes)
	if result.Diagnosis == "" && len(result.KeyInsights) == 0 && len(result.Recommendations) == 0 {
		c.logger.WithField("brand_id", payload.BrandID).Warn("Text generator returned no usable sections, using placeholder insights")
		return PlaceholderInsight()
	}
	return result
}

// BuildPrompt renders the payload as the user prompt.
func (c *InsightComposer) BuildPrompt(payload models.InsightPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Brand: %s\n\n", payload.BrandID)

	b.WriteString("Visibility score trend:\n")
	fmt.Fprintf(&b, "- Direction: %s\n", c.title.String(string(payload.Trend.Direction)))
	fmt.Fprintf(&b, "- Change: %s%% (recent average %s vs prior %s, %d samples)\n",
		fixed(payload.Trend.PercentChange, 2), fixed(payload.Trend.RecentAverage, 2),
		fixed(payload.Trend.PriorAverage, 2), payload.Trend.SampleSize)

	b.WriteString("\nAI assistant mentions:\n")
	fmt.Fprintf(&b, "- Observations: %d, mentioned: %d (%s%%)\n",
		payload.Mentions.Total, payload.Mentions.Mentioned, fixed(payload.Mentions.MentionRate, 1))
	fmt.Fprintf(&b, "- Average confidence: %s\n", fixed(payload.Mentions.AvgConfidence, 2))

	b.WriteString("\nSearch performance:\n")
	fmt.Fprintf(&b, "- Average position: %s\n", fixed(payload.SEO.AvgPosition, 1))
	fmt.Fprintf(&b, "- Average CTR: %s%%\n", fixed(payload.SEO.AvgCTR, 2))
	fmt.Fprintf(&b, "- Average conversion rate: %s%%\n", fixed(payload.SEO.AvgConversionRate, 2))
	fmt.Fprintf(&b, "- Organic traffic: %d\n", payload.SEO.TotalTraffic)

	b.WriteString("\nForecast:\n")
	fmt.Fprintf(&b, "- Next period estimate: %s (confidence %s)\n",
		fixed(payload.Forecast.Simple.PredictedValue, 2), fixed(payload.Forecast.Simple.Confidence, 2))
	switch f := payload.Forecast.Regression.(type) {
	case models.RegressionForecast:
		fmt.Fprintf(&b, "- Linear model: slope %s per day, R² %s, %d anomalies\n",
			fixed(f.Slope, 3), fixed(f.RSquared, 3), f.AnomalyCount)
		for _, p := range f.Predictions {
			fmt.Fprintf(&b, "- In %d days: %s (range %s to %s)\n",
				p.HorizonDays, fixed(p.Value, 1), fixed(p.LowerBound, 1), fixed(p.UpperBound, 1))
		}
	case models.InsufficientDataForecast:
		fmt.Fprintf(&b, "- Linear model unavailable: %s\n", f.Message)
	}

	b.WriteString("\nCorrelation between visibility score and search position:\n")
	fmt.Fprintf(&b, "- %s (%s)\n", c.title.String(strings.ReplaceAll(string(payload.Correlation.Label), "_", " ")),
		fixed(payload.Correlation.Coefficient, 2))

	return b.String()
}

// PlaceholderInsight is the result used whenever the generator cannot help.
func PlaceholderInsight() models.InsightResult {
	return models.InsightResult{
		Diagnosis:       placeholderDiagnosis,
		KeyInsights:     []string{},
		Recommendations: []string{},
		UrgentAction:    nil,
		Source:          models.InsightSourceFallback,
	}
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
