package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

// Options configures one engine instance.
type Options struct {
	Normalize  NormalizeOptions
	Policy     models.MatchPolicy
	BusinessID string
	Retry      RetryConfig
	// DryRun plans but never writes; the result reports planned counts only.
	DryRun bool
	Logger *slog.Logger
}

// Engine runs the full import: normalize rows, fetch the existing-record
// snapshot, build the reconciliation plan, execute it. The store handle is
// injected; each run owns its own snapshot and result.
type Engine struct {
	store      store.RecordStore
	normalizer *Normalizer
	executor   *Executor
	opts       Options
	logger     *slog.Logger

	// Metrics is exposed so callers can serve the registry.
	Metrics *Metrics
}

// NewEngine builds an engine bound to a record store.
func NewEngine(recordStore store.RecordStore, opts Options) (*Engine, error) {
	if recordStore == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if opts.Policy == "" {
		opts.Policy = models.UpdateOnMatch
	}
	if opts.Policy != models.UpdateOnMatch && opts.Policy != models.SkipOnMatch {
		return nil, fmt.Errorf("unknown match policy %q", opts.Policy)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	normalizer, err := NewNormalizer(opts.Normalize)
	if err != nil {
		return nil, fmt.Errorf("build normalizer: %w", err)
	}

	metrics := NewMetrics()
	return &Engine{
		store:      recordStore,
		normalizer: normalizer,
		executor:   NewExecutor(recordStore, opts.Retry, metrics, opts.Logger),
		opts:       opts,
		logger:     opts.Logger,
		Metrics:    metrics,
	}, nil
}

// Run processes one import batch. Rejected rows and failed writes land in
// the result and never abort the run; only a failed snapshot fetch is
// fatal, before any write happens.
func (e *Engine) Run(ctx context.Context, rows []models.ImportRow) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.RunResult{
		RunID:     uuid.NewString(),
		Policy:    e.opts.Policy,
		StartTime: time.Now(),
		RowsRead:  len(rows),
	}
	e.Metrics.AddRows(len(rows))

	records, rejections := e.normalizer.NormalizeAll(rows)
	result.Rejected = rejections
	for _, rejection := range rejections {
		e.Metrics.IncRejected(rejection.Field)
	}

	e.logger.Info("rows normalized",
		slog.String("run_id", result.RunID),
		slog.Int("rows", len(rows)),
		slog.Int("valid", len(records)),
		slog.Int("rejected", len(rejections)),
	)

	index, err := e.fetchIndex(ctx, records)
	if err != nil {
		// Fatal: without the snapshot every row would misclassify as an
		// insert.
		return nil, fmt.Errorf("fetch existing records: %w", err)
	}

	plan := BuildPlan(records, index, e.opts.Policy, e.opts.BusinessID)
	e.logger.Info("plan built",
		slog.String("run_id", result.RunID),
		slog.Int("inserts", len(plan.Inserts)),
		slog.Int("updates", len(plan.Updates)),
		slog.Int("skipped", len(plan.SkippedKeys)),
	)

	if e.opts.DryRun {
		result.InsertsPlanned = len(plan.Inserts)
		result.UpdatesPlanned = len(plan.Updates)
		result.Skipped = len(plan.SkippedKeys)
	} else {
		e.executor.Execute(ctx, plan, result)
	}

	result.EndTime = time.Now()
	return result, nil
}

// fetchIndex takes the one-per-run snapshot of existing record identities.
func (e *Engine) fetchIndex(ctx context.Context, records []models.Record) (map[string]store.ExistingRecord, error) {
	if len(records) == 0 {
		return map[string]store.ExistingRecord{}, nil
	}

	keys := make([]string, len(records))
	for i, record := range records {
		keys[i] = record.Code
	}

	existing, err := e.store.FetchByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	return BuildIndex(existing), nil
}
