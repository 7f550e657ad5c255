package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joseteiadirector/teia-geo/internal/cache"
	"github.com/joseteiadirector/teia-geo/internal/models"
)

// MockPredictiveAnalyzer is a mock implementation of PredictiveAnalyzer for testing
type MockPredictiveAnalyzer struct {
	mock.Mock
}

func (m *MockPredictiveAnalyzer) Analyze(ctx context.Context, req models.AnalyticsRequest) (*models.AnalyticsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyticsResponse), args.Error(1)
}

func (m *MockPredictiveAnalyzer) AnalyzeSeries(req models.SeriesAnalysisRequest) (*models.SeriesAnalysis, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeriesAnalysis), args.Error(1)
}

// MockHealthChecker mocks the database and Redis health checks
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSeriesCacheAdmin is a mock implementation of SeriesCacheAdmin
type MockSeriesCacheAdmin struct {
	mock.Mock
}

func (m *MockSeriesCacheAdmin) GetStats() cache.SeriesCacheStats {
	args := m.Called()
	return args.Get(0).(cache.SeriesCacheStats)
}

func (m *MockSeriesCacheAdmin) Invalidate(ctx context.Context, brandID string) (int, error) {
	args := m.Called(ctx, brandID)
	return args.Int(0), args.Error(1)
}
