package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

func newTestEngine(t *testing.T, recordStore store.RecordStore, policy models.MatchPolicy) *Engine {
	t.Helper()
	engine, err := NewEngine(recordStore, Options{
		Normalize:  NormalizeOptions{Columns: productColumns(), RequirePrice: true},
		Policy:     policy,
		BusinessID: "biz-1",
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRunScenario(t *testing.T) {
	f := newFakeStore()
	f.seed(
		models.Record{Code: "PROD001", Name: "Viejo", Price: 999},
		models.Record{Code: "PROD002", Name: "Otro", Price: 1},
		models.Record{Code: "PROD003", Name: "Tercero", Price: 2},
	)

	rows := []models.ImportRow{
		{"codigo": "PROD001", "nombre": "Cafe", "precio": "$ 1.200", "stock": "150"},
		{"codigo": "PROD999", "nombre": "Nuevo", "precio": "$ 3.000", "stock": "10"},
	}

	result, err := newTestEngine(t, f, models.UpdateOnMatch).Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.RowsRead != 2 || len(result.Rejected) != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Updated != 1 || result.Inserted != 1 {
		t.Fatalf("updated=%d inserted=%d", result.Updated, result.Inserted)
	}
	if updated := f.records[f.ids["PROD001"]]; updated.Price != 1200 {
		t.Fatalf("PROD001 price = %v, want 1200", updated.Price)
	}
	if inserted := f.records[f.ids["PROD999"]]; inserted.Price != 3000 {
		t.Fatalf("PROD999 price = %v, want 3000", inserted.Price)
	}
	if result.Duplicates() != 1 {
		t.Fatalf("Duplicates() = %d, want updated count under update policy", result.Duplicates())
	}
}

func TestEngineRunIdempotence(t *testing.T) {
	f := newFakeStore()
	rows := []models.ImportRow{
		{"codigo": "PROD001", "nombre": "Cafe", "precio": "1.200", "stock": "150"},
		{"codigo": "PROD002", "nombre": "Azucar", "precio": "2.500,00", "stock": "20"},
	}

	engine := newTestEngine(t, f, models.UpdateOnMatch)

	first, err := engine.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Inserted != 2 || first.Updated != 0 {
		t.Fatalf("first run inserted=%d updated=%d", first.Inserted, first.Updated)
	}

	second, err := engine.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	// Updates stay unconditional on key match; only inserts drop to zero.
	if second.Inserted != 0 || second.Updated != 2 {
		t.Fatalf("second run inserted=%d updated=%d", second.Inserted, second.Updated)
	}
}

func TestEngineRunRejectedRowsDoNotReachThePlan(t *testing.T) {
	f := newFakeStore()
	rows := []models.ImportRow{
		{"nombre": "Sin codigo", "precio": "10", "stock": "1"},
		{"codigo": "PROD001", "nombre": "Valido", "precio": "10", "stock": "1"},
	}

	result, err := newTestEngine(t, f, models.UpdateOnMatch).Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Rejected) != 1 || result.Rejected[0].Field != "codigo" || result.Rejected[0].Row != 0 {
		t.Fatalf("unexpected rejections: %+v", result.Rejected)
	}
	if result.Inserted != 1 {
		t.Fatalf("inserted=%d, want 1", result.Inserted)
	}
	if len(f.ids) != 1 {
		t.Fatalf("rejected row must not be written: %v", f.ids)
	}
}

func TestEngineRunSupplierSkipOnMatch(t *testing.T) {
	f := newFakeStore()
	f.seed(models.Record{Code: "900123456", Name: "Distribuidora Sur"})

	engine, err := NewEngine(f, Options{
		Normalize: NormalizeOptions{Columns: models.ColumnMap{Code: "nit", Name: "nombre"}},
		Policy:    models.SkipOnMatch,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), []models.ImportRow{
		{"nit": "900123456", "nombre": "Distribuidora Sur"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Inserted != 0 || result.Skipped != 1 || result.Updated != 0 {
		t.Fatalf("inserted=%d skipped=%d updated=%d", result.Inserted, result.Skipped, result.Updated)
	}
	if result.Duplicates() != 1 {
		t.Fatalf("Duplicates() = %d, want skipped count under skip policy", result.Duplicates())
	}
}

func TestEngineRunFetchFailureIsFatal(t *testing.T) {
	f := &failingFetchStore{err: store.ConnectionError{Err: errors.New("refused")}}
	engine := newTestEngine(t, f, models.UpdateOnMatch)

	_, err := engine.Run(context.Background(), []models.ImportRow{
		{"codigo": "PROD001", "nombre": "Cafe", "precio": "10", "stock": "1"},
	})
	if err == nil {
		t.Fatal("expected fatal error when the snapshot fetch fails")
	}
	if f.inserts != 0 || f.updates != 0 {
		t.Fatalf("no write may happen after a failed fetch: %+v", f)
	}
}

func TestEngineRunDryRun(t *testing.T) {
	f := newFakeStore()
	f.seed(models.Record{Code: "PROD001", Name: "Viejo", Price: 1})

	engine, err := NewEngine(f, Options{
		Normalize: NormalizeOptions{Columns: productColumns(), RequirePrice: true},
		Policy:    models.UpdateOnMatch,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), []models.ImportRow{
		{"codigo": "PROD001", "nombre": "Cafe", "precio": "10", "stock": "1"},
		{"codigo": "PROD002", "nombre": "Nuevo", "precio": "20", "stock": "2"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.InsertsPlanned != 1 || result.UpdatesPlanned != 1 {
		t.Fatalf("planned inserts=%d updates=%d", result.InsertsPlanned, result.UpdatesPlanned)
	}
	if result.Inserted != 0 || result.Updated != 0 {
		t.Fatalf("dry run must not write: %+v", result)
	}
	if f.records[f.ids["PROD001"]].Price != 1 {
		t.Fatal("dry run mutated the store")
	}
}

type failingFetchStore struct {
	err     error
	inserts int
	updates int
}

func (f *failingFetchStore) FetchByKeys(ctx context.Context, codes []string) ([]store.ExistingRecord, error) {
	return nil, f.err
}

func (f *failingFetchStore) InsertBatch(ctx context.Context, businessID string, records []models.Record) error {
	f.inserts++
	return nil
}

func (f *failingFetchStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	f.updates++
	return nil
}
