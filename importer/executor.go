package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

// Executor issues the planned writes and accounts for partial failures.
type Executor struct {
	store   store.RecordStore
	retry   RetryConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewExecutor wires the executor to a store.
func NewExecutor(recordStore store.RecordStore, retry RetryConfig, metrics *Metrics, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: recordStore, retry: retry, metrics: metrics, logger: logger}
}

// Execute runs the insert phase then the update phase, accumulating into
// result. An insert-batch failure aborts only the insert phase; each failed
// update is recorded against its natural key and the loop continues. A
// cancelled context stops issuing new updates, leaving the result to
// reflect only completed operations.
func (e *Executor) Execute(ctx context.Context, plan models.Plan, result *models.RunResult) {
	result.InsertsPlanned = len(plan.Inserts)
	result.UpdatesPlanned = len(plan.Updates)
	result.Skipped = len(plan.SkippedKeys)

	if len(plan.Inserts) > 0 {
		err := e.call(ctx, func(ctx context.Context) error {
			return e.store.InsertBatch(ctx, plan.BusinessID, plan.Inserts)
		})
		if err != nil {
			// Inserted rows have no per-row identity, so the batch fails
			// as a unit.
			result.InsertFailure = err.Error()
			e.metrics.IncWrite("insert", "error")
			e.metrics.IncError(errorTypeLabel(err))
			e.logger.Error("insert batch failed",
				slog.Int("records", len(plan.Inserts)),
				slog.Any("error", err),
			)
		} else {
			result.Inserted = len(plan.Inserts)
			e.metrics.IncWrite("insert", "ok")
		}
	}

	for _, update := range plan.Updates {
		if ctx.Err() != nil {
			e.logger.Warn("run aborted, remaining updates not attempted",
				slog.Int("remaining", result.UpdatesPlanned-result.Updated-len(result.UpdateFailures)),
			)
			return
		}

		err := e.call(ctx, func(ctx context.Context) error {
			return e.store.UpdateByID(ctx, update.ID, update.Record)
		})
		if err != nil {
			result.UpdateFailures = append(result.UpdateFailures, models.WriteFailure{
				Key:    update.Record.Code,
				Reason: err.Error(),
			})
			e.metrics.IncWrite("update", "error")
			e.metrics.IncError(errorTypeLabel(err))
			e.logger.Error("update failed",
				slog.String("code", update.Record.Code),
				slog.Any("error", err),
			)
			continue
		}
		result.Updated++
		e.metrics.IncWrite("update", "ok")
	}
}

// call wraps one store operation with latency observation and the bounded
// retry loop.
func (e *Executor) call(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()
	defer func() {
		e.metrics.ObserveStore(time.Since(start))
	}()
	return withRetry(ctx, e.retry, e.metrics.IncRetries, fn)
}
