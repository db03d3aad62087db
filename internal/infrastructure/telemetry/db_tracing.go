package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled            bool
	DBSystem           string        // "postgresql" or "sqlite"
	IncludeQueryValues bool          // bind values are omitted from spans unless set
	SlowQueryThreshold time.Duration // queries slower than this get a slow_query event
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus callbacks that annotate
// each statement span with table, affected rows and slow-query events.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeQueryValues {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	threshold := cfg.SlowQueryThreshold
	if threshold <= 0 {
		threshold = 200 * time.Millisecond
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateStatementSpan(tx, threshold) }

	cb := db.Callback()
	// The annotating callback runs before otelgorm ends the statement span.
	hooks := []func(before, after func(*gorm.DB)) error{
		func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("focusvent:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Before("otel:after_create").Register("focusvent:after_create", a)
		},
		func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("focusvent:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Before("otel:after_query").Register("focusvent:after_query", a)
		},
		func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("focusvent:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Before("otel:after_update").Register("focusvent:after_update", a)
		},
		func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("focusvent:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("focusvent:after_delete", a)
		},
	}
	for _, register := range hooks {
		if err := register(before, after); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", threshold),
	)
	return nil
}

func annotateStatementSpan(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", threshold.Milliseconds()),
			))
		}
	}
}
