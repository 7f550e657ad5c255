package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/joseteiadirector/teia-geo/internal/database"

// Querier is the read-only surface used by the series loader.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// TracedDB wraps a querier and records one client span per query.
type TracedDB struct {
	db     Querier
	tracer trace.Tracer
}

// NewTracedDB creates a new traced querier
func NewTracedDB(db Querier) *TracedDB {
	return &TracedDB{
		db:     db,
		tracer: otel.Tracer(tracerName),
	}
}

// Query executes a query inside a span named after the operation.
func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.tracer.Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", sql),
		),
	)
	defer span.End()

	rows, err := db.db.Query(ctx, sql, args...)
	if err != nil {
		RecordDatabaseError(span, err)
	}
	return rows, err
}

// RecordDatabaseError marks the span as failed.
func RecordDatabaseError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
