package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

// fakeStore is an in-memory RecordStore with scriptable failures.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	records map[string]models.Record // by internal id
	ids     map[string]string        // code -> id

	insertErr  error
	updateErrs map[string]error // by internal id
	updateLog  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:    make(map[string]models.Record),
		ids:        make(map[string]string),
		updateErrs: make(map[string]error),
	}
}

func (f *fakeStore) seed(records ...models.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range records {
		f.nextID++
		id := fmt.Sprintf("id-%d", f.nextID)
		f.records[id] = record
		f.ids[record.Code] = id
	}
}

func (f *fakeStore) FetchByKeys(ctx context.Context, codes []string) ([]store.ExistingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ExistingRecord
	for _, code := range codes {
		if id, ok := f.ids[code]; ok {
			out = append(out, store.ExistingRecord{ID: id, Code: code})
		}
	}
	return out, nil
}

func (f *fakeStore) InsertBatch(ctx context.Context, businessID string, records []models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, record := range records {
		f.nextID++
		id := fmt.Sprintf("id-%d", f.nextID)
		f.records[id] = record
		f.ids[record.Code] = id
	}
	return nil
}

func (f *fakeStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateLog = append(f.updateLog, id)
	if err, ok := f.updateErrs[id]; ok {
		return err
	}
	if _, ok := f.records[id]; !ok {
		return store.RequestError{Err: fmt.Errorf("record %s not found", id)}
	}
	f.records[id] = record
	return nil
}

func newTestExecutor(f *fakeStore) *Executor {
	return NewExecutor(f, RetryConfig{MaxRetries: 0}, NewMetrics(), nil)
}

func TestExecuteInsertAndUpdate(t *testing.T) {
	f := newFakeStore()
	f.seed(models.Record{Code: "PROD001", Name: "Viejo", Price: 100})

	existingID := f.ids["PROD001"]
	plan := models.Plan{
		BusinessID: "biz",
		Inserts:    []models.Record{{Code: "PROD999", Name: "Nuevo", Price: 3000}},
		Updates:    []models.Update{{ID: existingID, Record: models.Record{Code: "PROD001", Name: "Cafe", Price: 1200}}},
	}

	result := &models.RunResult{Policy: models.UpdateOnMatch}
	newTestExecutor(f).Execute(context.Background(), plan, result)

	if result.Inserted != 1 || result.Updated != 1 {
		t.Fatalf("inserted=%d updated=%d", result.Inserted, result.Updated)
	}
	if result.InsertFailure != "" || len(result.UpdateFailures) != 0 {
		t.Fatalf("unexpected failures: %+v", result)
	}
	if f.records[existingID].Price != 1200 {
		t.Fatalf("update not applied: %+v", f.records[existingID])
	}
	if _, ok := f.ids["PROD999"]; !ok {
		t.Fatal("insert not applied")
	}
}

func TestExecuteInsertFailureAbortsOnlyInsertPhase(t *testing.T) {
	f := newFakeStore()
	f.seed(models.Record{Code: "PROD001", Name: "Viejo"})
	f.insertErr = store.RequestError{Status: 400, Err: errors.New("bad payload")}

	plan := models.Plan{
		Inserts: []models.Record{{Code: "NEW1"}, {Code: "NEW2"}},
		Updates: []models.Update{{ID: f.ids["PROD001"], Record: models.Record{Code: "PROD001", Name: "Cafe"}}},
	}

	result := &models.RunResult{}
	newTestExecutor(f).Execute(context.Background(), plan, result)

	if result.Inserted != 0 || result.InsertFailure == "" {
		t.Fatalf("expected failed insert phase, got %+v", result)
	}
	if result.Updated != 1 {
		t.Fatalf("update phase should still run, updated=%d", result.Updated)
	}
}

func TestExecutePartialUpdateFailure(t *testing.T) {
	f := newFakeStore()
	f.seed(
		models.Record{Code: "A", Name: "a"},
		models.Record{Code: "B", Name: "b"},
		models.Record{Code: "C", Name: "c"},
	)
	f.updateErrs[f.ids["B"]] = store.RequestError{Status: 422, Err: errors.New("constraint violation")}

	plan := models.Plan{Updates: []models.Update{
		{ID: f.ids["A"], Record: models.Record{Code: "A", Name: "a2"}},
		{ID: f.ids["B"], Record: models.Record{Code: "B", Name: "b2"}},
		{ID: f.ids["C"], Record: models.Record{Code: "C", Name: "c2"}},
	}}

	result := &models.RunResult{}
	newTestExecutor(f).Execute(context.Background(), plan, result)

	if result.Updated != 2 {
		t.Fatalf("updated=%d, want 2", result.Updated)
	}
	if len(result.UpdateFailures) != 1 || result.UpdateFailures[0].Key != "B" {
		t.Fatalf("failure should be attributed to B: %+v", result.UpdateFailures)
	}
	if f.records[f.ids["C"]].Name != "c2" {
		t.Fatal("rows after the failed one must still be written")
	}
}

func TestExecuteRetriesTransientUpdate(t *testing.T) {
	f := newFakeStore()
	f.seed(models.Record{Code: "A", Name: "a"})
	id := f.ids["A"]

	attempts := 0
	flaky := &flakyStore{fakeStore: f, failFirst: 2, onAttempt: func() { attempts++ }}

	executor := NewExecutor(flaky, RetryConfig{MaxRetries: 3, Backoff: 1, BackoffMax: 2}, NewMetrics(), nil)
	result := &models.RunResult{}
	executor.Execute(context.Background(), models.Plan{Updates: []models.Update{
		{ID: id, Record: models.Record{Code: "A", Name: "a2"}},
	}}, result)

	if result.Updated != 1 {
		t.Fatalf("updated=%d, want 1 after retries (failures: %+v)", result.Updated, result.UpdateFailures)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d, want 3", attempts)
	}
}

func TestExecuteDoesNotRetryTerminalErrors(t *testing.T) {
	f := newFakeStore()
	f.seed(models.Record{Code: "A", Name: "a"})
	id := f.ids["A"]
	f.updateErrs[id] = store.RequestError{Status: 400, Err: errors.New("validation")}

	executor := NewExecutor(f, RetryConfig{MaxRetries: 5, Backoff: 1}, NewMetrics(), nil)
	result := &models.RunResult{}
	executor.Execute(context.Background(), models.Plan{Updates: []models.Update{
		{ID: id, Record: models.Record{Code: "A", Name: "a2"}},
	}}, result)

	if len(f.updateLog) != 1 {
		t.Fatalf("terminal error retried: %d attempts", len(f.updateLog))
	}
	if len(result.UpdateFailures) != 1 {
		t.Fatalf("failure not recorded: %+v", result)
	}
}

// flakyStore fails the first failFirst update attempts with a transient
// error, then delegates.
type flakyStore struct {
	*fakeStore
	failFirst int
	onAttempt func()
}

func (f *flakyStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	if f.onAttempt != nil {
		f.onAttempt()
	}
	if f.failFirst > 0 {
		f.failFirst--
		return store.TimeoutError{Err: errors.New("deadline exceeded")}
	}
	return f.fakeStore.UpdateByID(ctx, id, record)
}
