package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/joseteiadirector/teia-geo/internal/models"
	"github.com/joseteiadirector/teia-geo/pkg/textgen"
)

// MockSeriesLoader implements SeriesLoader for testing
type MockSeriesLoader struct {
	mock.Mock
}

func (m *MockSeriesLoader) LoadSeries(ctx context.Context, brandID string, from, to time.Time) (*models.SeriesBundle, error) {
	args := m.Called(ctx, brandID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeriesBundle), args.Error(1)
}

// MockGenerator implements textgen.Generator for testing
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req textgen.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
