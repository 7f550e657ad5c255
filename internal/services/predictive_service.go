package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joseteiadirector/teia-geo/internal/metrics"
	"github.com/joseteiadirector/teia-geo/internal/models"
	"github.com/joseteiadirector/teia-geo/internal/telemetry"
	"github.com/joseteiadirector/teia-geo/internal/utils"
)

// PredictiveService answers predictive analytics requests: it loads the
// brand's history, runs the numeric engine and asks for a written diagnosis.
type PredictiveService struct {
	engine   *PredictiveEngine
	loader   SeriesLoader
	composer *InsightComposer
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	now      func() time.Time
}

// NewPredictiveService wires the orchestrator. metrics may be nil.
func NewPredictiveService(engine *PredictiveEngine, loader SeriesLoader, composer *InsightComposer, m *metrics.Metrics, logger *logrus.Logger) *PredictiveService {
	if logger == nil {
		logger = logrus.New()
	}
	return &PredictiveService{
		engine:   engine,
		loader:   loader,
		composer: composer,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Analyze runs the full pipeline for one brand. Only validation and series
// loading failures are returned as errors; a short history or a failing text
// generator still produce a response.
func (s *PredictiveService) Analyze(ctx context.Context, req models.AnalyticsRequest) (*models.AnalyticsResponse, error) {
	start := time.Now()

	lookback, horizons, err := s.normalizeRequest(&req)
	if err != nil {
		s.metrics.AnalyticsRequest(metrics.OutcomeInvalid, time.Since(start))
		return nil, err
	}

	to := s.now()
	from := to.AddDate(0, 0, -lookback)

	loadCtx, loadSpan := telemetry.StartSpan(ctx, "analytics.load",
		attribute.String("brand_id", req.BrandID),
		attribute.Int("lookback_days", lookback),
	)
	bundle, err := s.loader.LoadSeries(loadCtx, req.BrandID, from, to)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUpstreamData, err)
		telemetry.FinishSpan(loadSpan, err)
		s.metrics.AnalyticsRequest(metrics.OutcomeUpstreamFailed, time.Since(start))
		s.logger.WithFields(logrus.Fields{
			"brand_id": req.BrandID,
			"error":    err.Error(),
		}).Error("Failed to load brand series")
		return nil, err
	}
	telemetry.FinishSpan(loadSpan, nil)

	_, computeSpan := telemetry.StartSpan(ctx, "analytics.compute",
		attribute.Int("primary_points", len(bundle.Primary)),
	)
	response := s.compute(req.BrandID, bundle, horizons)
	response.Window = models.TimeWindow{From: from, To: to}
	computeSpan.SetAttributes(attribute.String("regression_kind", string(response.Forecast.Regression.Kind())))
	telemetry.FinishSpan(computeSpan, nil)

	insightCtx, insightSpan := telemetry.StartSpan(ctx, "analytics.insights")
	payload := BuildPayload(req.BrandID, response.Trends.Primary, response.Forecast, response.Correlations,
		response.Summary.Mentions, response.Summary.SEO)
	response.Insights = s.composer.Compose(insightCtx, payload)
	insightSpan.SetAttributes(attribute.String("source", string(response.Insights.Source)))
	telemetry.FinishSpan(insightSpan, nil)
	s.metrics.InsightGenerated(string(response.Insights.Source))

	response.GeneratedAt = s.now()
	s.metrics.AnalyticsRequest(metrics.OutcomeSuccess, time.Since(start))

	s.logger.WithFields(logrus.Fields{
		"brand_id":       req.BrandID,
		"primary_points": len(bundle.Primary),
		"mentions":       len(bundle.Mentions),
		"seo_rows":       len(bundle.Secondary),
		"trend":          response.Trends.Primary.Direction,
		"forecast_kind":  response.Forecast.Regression.Kind(),
		"insight_source": response.Insights.Source,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("Predictive analytics completed")

	return response, nil
}

// compute runs every numeric stage. It performs no I/O.
func (s *PredictiveService) compute(brandID string, bundle *models.SeriesBundle, horizons []int) *models.AnalyticsResponse {
	primary := bundle.Primary
	mentionRate := MentionRateSeries(bundle.Mentions)
	seoPosition := SEOPositionSeries(bundle.Secondary)

	forecasts, regression := s.engine.Forecasts(primary, horizons)

	response := &models.AnalyticsResponse{
		BrandID: brandID,
		Trends: models.TrendSet{
			Primary:   s.engine.AnalyzeTrend(primary),
			Mentions:  s.engine.AnalyzeTrend(mentionRate),
			Secondary: s.engine.AnalyzeTrend(seoPosition),
		},
		Forecast:     forecasts,
		Correlations: s.engine.Correlate(primary, seoPosition, true),
		Summary: models.AnalyticsSummary{
			Mentions: SummarizeMentions(bundle.Mentions),
			SEO:      SummarizeSEO(bundle.Secondary),
		},
		Smoothed: s.engine.SmoothSeries(primary, s.engine.Policy().SmoothingPeriod),
	}

	if regression != nil {
		report := s.engine.DetectAnomalies(primary, RegressionLine{Slope: regression.Slope, Intercept: regression.Intercept})
		response.Anomalies = &report
		s.metrics.AnomaliesDetected(report.Count)
	}

	return response
}

// AnalyzeSeries runs the numeric engine over a caller-supplied series.
func (s *PredictiveService) AnalyzeSeries(req models.SeriesAnalysisRequest) (*models.SeriesAnalysis, error) {
	horizons, err := s.normalizeHorizons(req.Horizons)
	if err != nil {
		return nil, err
	}

	points := make(models.Series, len(req.Points))
	copy(points, req.Points)
	sortSeries(points)

	analysis := s.engine.AnalyzeSeries(points, horizons)
	if analysis.Anomalies != nil {
		s.metrics.AnomaliesDetected(analysis.Anomalies.Count)
	}
	return analysis, nil
}

func (s *PredictiveService) normalizeRequest(req *models.AnalyticsRequest) (int, []int, error) {
	policy := s.engine.Policy()

	req.BrandID = strings.TrimSpace(req.BrandID)
	if req.BrandID == "" {
		return 0, nil, utils.NewFieldValidationErrorf("brand_id", "is required")
	}

	lookback := req.LookbackDays
	if lookback == 0 {
		lookback = policy.DefaultLookbackDays
	}
	if lookback < policy.MinLookbackDays || lookback > policy.MaxLookbackDays {
		return 0, nil, utils.NewFieldValidationErrorf("lookback_days", "must be between %d and %d, got %d",
			policy.MinLookbackDays, policy.MaxLookbackDays, lookback)
	}

	horizons, err := s.normalizeHorizons(req.Horizons)
	if err != nil {
		return 0, nil, err
	}
	return lookback, horizons, nil
}

// normalizeHorizons applies the defaults, checks bounds and returns the
// horizons sorted without duplicates.
func (s *PredictiveService) normalizeHorizons(horizons []int) ([]int, error) {
	policy := s.engine.Policy()

	if len(horizons) == 0 {
		return append([]int(nil), policy.DefaultHorizons...), nil
	}
	if len(horizons) > policy.MaxHorizons {
		return nil, utils.NewFieldValidationErrorf("horizons", "at most %d horizons are allowed, got %d",
			policy.MaxHorizons, len(horizons))
	}

	seen := make(map[int]struct{}, len(horizons))
	normalized := make([]int, 0, len(horizons))
	for _, h := range horizons {
		if h < 1 || h > policy.MaxHorizonDays {
			return nil, utils.NewFieldValidationErrorf("horizons", "must be between 1 and %d days, got %d",
				policy.MaxHorizonDays, h)
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		normalized = append(normalized, h)
	}
	sort.Ints(normalized)
	return normalized, nil
}
