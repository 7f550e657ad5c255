package database

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/joseteiadirector/teia-geo/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		expected string
	}{
		{
			name:     "explicit url wins",
			cfg:      config.DatabaseConfig{DatabaseURL: "postgres://u:p@db:5432/geo", Host: "ignored"},
			expected: "postgres://u:p@db:5432/geo",
		},
		{
			name: "individual fields",
			cfg: config.DatabaseConfig{
				Host: "localhost", Port: 5432, User: "postgres", Password: "secret", DBName: "teia_geo", SSLMode: "disable",
			},
			expected: "host=localhost port=5432 user=postgres password=secret dbname=teia_geo sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildDSN(tt.cfg))
		})
	}
}

func TestNewPostgresConnection_InvalidDSN(t *testing.T) {
	_, err := NewPostgresConnection(context.Background(), config.DatabaseConfig{DatabaseURL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database config")
}

func TestPostgresDB_NilSafety(t *testing.T) {
	var db *PostgresDB
	assert.Error(t, db.HealthCheck(context.Background()))
	assert.NotPanics(t, db.Close)

	empty := &PostgresDB{}
	assert.Error(t, empty.HealthCheck(context.Background()))
	assert.NotPanics(t, empty.Close)
}

func TestRedisClient_HealthCheck(t *testing.T) {
	var nilClient *RedisClient
	assert.EqualError(t, nilClient.HealthCheck(context.Background()), "redis client is nil")

	mr := miniredis.RunT(t)
	client := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	defer client.Close()
	assert.NoError(t, client.HealthCheck(context.Background()))

	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, client.HealthCheck(ctx))
}

func TestNewRedisConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisConnection(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := mustPort(t, mr)
	mr.Close()

	_, err := NewRedisConnection(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

func TestTracedDB_Query(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	traced := NewTracedDB(mock)
	traced.tracer = tp.Tracer(tracerName)

	mock.ExpectQuery("SELECT score").
		WithArgs("brand-1").
		WillReturnRows(pgxmock.NewRows([]string{"score"}).AddRow(72.5))
	mock.ExpectQuery("SELECT broken").
		WillReturnError(errors.New("relation does not exist"))

	rows, err := traced.Query(context.Background(), "SELECT score FROM geo_scores WHERE brand_id = $1", "brand-1")
	require.NoError(t, err)
	require.True(t, rows.Next())
	var score float64
	require.NoError(t, rows.Scan(&score))
	rows.Close()
	assert.InDelta(t, 72.5, score, 1e-9)

	_, err = traced.Query(context.Background(), "SELECT broken")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "db.query", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "relation does not exist", spans[1].Status().Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}
