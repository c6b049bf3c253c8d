package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type pgxSpanKey struct{}

const maxStatementLen = 300

// PGXTracer opens a span per SQL statement via the pgx.QueryTracer hooks.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, span := otel.Tracer("db.pgx").Start(ctx, "pgx.query")
	stmt := strings.TrimSpace(data.SQL)
	if len(stmt) > maxStatementLen {
		stmt = stmt[:maxStatementLen] + "..."
	}
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", stmt),
	)
	if fields := strings.Fields(stmt); len(fields) > 0 {
		span.SetAttributes(attribute.String("db.operation", fields[0]))
	}
	return context.WithValue(ctx, pgxSpanKey{}, span)
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(pgxSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
	}
	span.End()
}
